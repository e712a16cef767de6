package rotessa

import (
	"context"

	"github.com/boddenberg/rotessa-go/internal/domain"
)

// TransactionReportAPI wraps GET /transaction_report.
type TransactionReportAPI struct {
	list Endpoint[[]domain.TransactionReportItem]
}

func newTransactionReportAPI(e *Executor) *TransactionReportAPI {
	return &TransactionReportAPI{
		list: Bind[[]domain.TransactionReportItem](e, TransactionReportList),
	}
}

// List returns one page of report rows. Zero-valued optional filters are not sent.
func (a *TransactionReportAPI) List(ctx context.Context, q domain.ReportQuery) ([]domain.TransactionReportItem, error) {
	return a.list(ctx, Args{Query: reportQuery(q)})
}

func reportQuery(q domain.ReportQuery) Query {
	query := Query{"start_date": nil}
	if q.StartDate != "" {
		query["start_date"] = q.StartDate
	}
	if q.EndDate != "" {
		query["end_date"] = q.EndDate
	}
	if q.Status != "" {
		query["status"] = q.Status
	}
	if q.Filter != "" {
		query["filter"] = q.Filter
	}
	if q.Page > 0 {
		query["page"] = q.Page
	}
	return query
}

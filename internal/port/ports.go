// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete Rotessa client.
package port

import (
	"context"

	"github.com/boddenberg/rotessa-go/internal/domain"
)

// CustomerAPI is the customer side of the payment provider.
// Implemented by *rotessa.CustomersAPI.
type CustomerAPI interface {
	List(ctx context.Context) ([]domain.Customer, error)
	Get(ctx context.Context, id int64) (*domain.CustomerDetail, error)
	GetByCustomIdentifier(ctx context.Context, identifier string) (*domain.CustomerDetail, error)
	Create(ctx context.Context, in domain.CustomerCreate) (*domain.CustomerDetail, error)
	UpdateWith(ctx context.Context, strategy domain.UpdateStrategy, id int64, in domain.CustomerUpdate) (*domain.CustomerDetail, error)
}

// ScheduleAPI manages transaction schedules.
// Implemented by *rotessa.TransactionSchedulesAPI.
type ScheduleAPI interface {
	Get(ctx context.Context, id int64) (*domain.TransactionSchedule, error)
	Create(ctx context.Context, in domain.TransactionScheduleCreate) (*domain.TransactionSchedule, error)
	CreateWithCustomIdentifier(ctx context.Context, in domain.TransactionScheduleCreateWithCustomIdentifier) (*domain.TransactionSchedule, error)
	UpdateWith(ctx context.Context, strategy domain.UpdateStrategy, id int64, in domain.TransactionScheduleUpdate) (*domain.TransactionSchedule, error)
	Delete(ctx context.Context, id int64) error
}

// ReportAPI reads the transaction report.
// Implemented by *rotessa.TransactionReportAPI.
type ReportAPI interface {
	List(ctx context.Context, q domain.ReportQuery) ([]domain.TransactionReportItem, error)
}

package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/infra/observability"
	"github.com/boddenberg/rotessa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Billing exposes transaction schedules and the transaction report.
type Billing struct {
	schedules port.ScheduleAPI
	report    port.ReportAPI
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewBilling creates the billing service.
func NewBilling(schedules port.ScheduleAPI, report port.ReportAPI, metrics *observability.Metrics, logger *zap.Logger) *Billing {
	return &Billing{schedules: schedules, report: report, metrics: metrics, logger: logger}
}

// ============================================================
// Transaction schedules
// ============================================================

func (b *Billing) GetSchedule(ctx context.Context, id int64) (*domain.TransactionSchedule, error) {
	ctx, span := tracer.Start(ctx, "Billing.GetSchedule")
	defer span.End()
	span.SetAttributes(attribute.Int64("schedule.id", id))

	if id <= 0 {
		return nil, &domain.ErrValidation{Field: "scheduleId", Message: "must be a positive integer"}
	}
	return b.schedules.Get(ctx, id)
}

// CreateSchedule validates the request locally, then creates the schedule by
// customer id, or by custom identifier when no id is given.
func (b *Billing) CreateSchedule(ctx context.Context, req *domain.ScheduleRequest) (*domain.TransactionSchedule, error) {
	ctx, span := tracer.Start(ctx, "Billing.CreateSchedule")
	defer span.End()

	if err := validateScheduleRequest(req); err != nil {
		return nil, err
	}

	if req.CustomerID > 0 {
		return b.schedules.Create(ctx, domain.TransactionScheduleCreate{
			CustomerID:   req.CustomerID,
			Amount:       req.Amount,
			Frequency:    req.Frequency,
			ProcessDate:  req.ProcessDate,
			Installments: req.Installments,
			Comment:      req.Comment,
		})
	}
	return b.schedules.CreateWithCustomIdentifier(ctx, domain.TransactionScheduleCreateWithCustomIdentifier{
		CustomIdentifier: req.CustomIdentifier,
		Amount:           req.Amount,
		Frequency:        req.Frequency,
		ProcessDate:      req.ProcessDate,
		Installments:     req.Installments,
		Comment:          req.Comment,
	})
}

func (b *Billing) UpdateSchedule(ctx context.Context, strategy domain.UpdateStrategy, id int64, in domain.TransactionScheduleUpdate) (*domain.TransactionSchedule, error) {
	ctx, span := tracer.Start(ctx, "Billing.UpdateSchedule")
	defer span.End()
	span.SetAttributes(attribute.Int64("schedule.id", id), attribute.String("update.strategy", string(strategy)))

	if id <= 0 {
		return nil, &domain.ErrValidation{Field: "scheduleId", Message: "must be a positive integer"}
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	return b.schedules.UpdateWith(ctx, strategy, id, in)
}

func (b *Billing) DeleteSchedule(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "Billing.DeleteSchedule")
	defer span.End()
	span.SetAttributes(attribute.Int64("schedule.id", id))

	if id <= 0 {
		return &domain.ErrValidation{Field: "scheduleId", Message: "must be a positive integer"}
	}
	if err := b.schedules.Delete(ctx, id); err != nil {
		return err
	}
	b.logger.Info("transaction schedule deleted", zap.Int64("schedule_id", id))
	return nil
}

// ============================================================
// Transaction report
// ============================================================

// Report returns one page of the transaction report.
func (b *Billing) Report(ctx context.Context, q domain.ReportQuery) ([]domain.TransactionReportItem, error) {
	ctx, span := tracer.Start(ctx, "Billing.Report")
	defer span.End()

	start := time.Now()
	defer func() {
		b.metrics.RecordRequestDuration("transaction_report", time.Since(start))
	}()

	if q.StartDate == "" {
		return nil, &domain.ErrValidation{Field: "start_date", Message: "required"}
	}
	for field, date := range map[string]string{"start_date": q.StartDate, "end_date": q.EndDate} {
		if date != "" && !isDate(date) {
			return nil, &domain.ErrValidation{Field: field, Message: "must be YYYY-MM-DD"}
		}
	}
	for field, status := range map[string]domain.TransactionStatus{"status": q.Status, "filter": q.Filter} {
		if status != "" && !slices.Contains(domain.TransactionStatuses(), status) {
			return nil, &domain.ErrValidation{Field: field, Message: "unknown transaction status"}
		}
	}
	if q.Page < 0 {
		return nil, &domain.ErrValidation{Field: "page", Message: "must not be negative"}
	}

	return b.report.List(ctx, q)
}

func validateScheduleRequest(req *domain.ScheduleRequest) error {
	if req == nil {
		return &domain.ErrValidation{Field: "body", Message: "required"}
	}
	if req.CustomerID <= 0 && strings.TrimSpace(req.CustomIdentifier) == "" {
		return &domain.ErrValidation{Field: "customer_id", Message: "customer_id or custom_identifier is required"}
	}
	if !req.Amount.IsPositive() {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if !slices.Contains(domain.Frequencies(), req.Frequency) {
		return &domain.ErrValidation{Field: "frequency", Message: "unknown frequency"}
	}
	if !isDate(req.ProcessDate) {
		return &domain.ErrValidation{Field: "process_date", Message: "must be YYYY-MM-DD"}
	}
	if req.Installments != nil && *req.Installments < 1 {
		return &domain.ErrValidation{Field: "installments", Message: "must be at least 1"}
	}
	return nil
}

func isDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

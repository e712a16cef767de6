package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/infra/observability"
	"github.com/boddenberg/rotessa-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockCustomers struct {
	mu        sync.Mutex
	gets      []int64
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
	errs      map[int64]error
	strategy  domain.UpdateStrategy
}

func (m *mockCustomers) List(context.Context) ([]domain.Customer, error) {
	return []domain.Customer{{ID: 1, Name: "A"}}, nil
}

func (m *mockCustomers) Get(ctx context.Context, id int64) (*domain.CustomerDetail, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxFlight.Load()
		if n <= cur || m.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.gets = append(m.gets, id)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.errs[id]; err != nil {
		return nil, err
	}
	return &domain.CustomerDetail{Customer: domain.Customer{ID: id}}, nil
}

func (m *mockCustomers) GetByCustomIdentifier(_ context.Context, identifier string) (*domain.CustomerDetail, error) {
	return &domain.CustomerDetail{Customer: domain.Customer{ID: 9, CustomIdentifier: identifier}}, nil
}

func (m *mockCustomers) Create(_ context.Context, in domain.CustomerCreate) (*domain.CustomerDetail, error) {
	return &domain.CustomerDetail{Customer: domain.Customer{ID: 10, Name: in.Name}}, nil
}

func (m *mockCustomers) UpdateWith(_ context.Context, strategy domain.UpdateStrategy, id int64, in domain.CustomerUpdate) (*domain.CustomerDetail, error) {
	m.strategy = strategy
	return &domain.CustomerDetail{Customer: domain.Customer{ID: id, Name: in.Name}}, nil
}

type mockSchedules struct {
	created       *domain.TransactionScheduleCreate
	createdCustom *domain.TransactionScheduleCreateWithCustomIdentifier
	deleted       int64
}

func (m *mockSchedules) Get(_ context.Context, id int64) (*domain.TransactionSchedule, error) {
	return &domain.TransactionSchedule{ID: id}, nil
}

func (m *mockSchedules) Create(_ context.Context, in domain.TransactionScheduleCreate) (*domain.TransactionSchedule, error) {
	m.created = &in
	return &domain.TransactionSchedule{ID: 1, CustomerID: in.CustomerID, Amount: in.Amount}, nil
}

func (m *mockSchedules) CreateWithCustomIdentifier(_ context.Context, in domain.TransactionScheduleCreateWithCustomIdentifier) (*domain.TransactionSchedule, error) {
	m.createdCustom = &in
	return &domain.TransactionSchedule{ID: 2, Amount: in.Amount}, nil
}

func (m *mockSchedules) UpdateWith(_ context.Context, _ domain.UpdateStrategy, id int64, _ domain.TransactionScheduleUpdate) (*domain.TransactionSchedule, error) {
	return &domain.TransactionSchedule{ID: id}, nil
}

func (m *mockSchedules) Delete(_ context.Context, id int64) error {
	m.deleted = id
	return nil
}

type mockReport struct {
	query *domain.ReportQuery
}

func (m *mockReport) List(_ context.Context, q domain.ReportQuery) ([]domain.TransactionReportItem, error) {
	m.query = &q
	return []domain.TransactionReportItem{{ID: 1, Status: domain.StatusApproved}}, nil
}

func newDirectory(m *mockCustomers, limit int) *service.CustomerDirectory {
	return service.NewCustomerDirectory(m, limit, observability.NewMetrics(), zap.NewNop())
}

func newBilling(s *mockSchedules, r *mockReport) *service.Billing {
	return service.NewBilling(s, r, observability.NewMetrics(), zap.NewNop())
}

func expectValidation(t *testing.T, err error, field string) {
	t.Helper()
	var v *domain.ErrValidation
	if !errors.As(err, &v) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if v.Field != field {
		t.Errorf("expected field %s, got %s", field, v.Field)
	}
}

// --- CustomerDirectory ---

func TestBatchGet_RespectsConcurrencyLimit(t *testing.T) {
	m := &mockCustomers{delay: 20 * time.Millisecond}
	d := newDirectory(m, 2)

	batch, err := d.BatchGet(context.Background(), []int64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(batch.Customers) != 6 {
		t.Fatalf("expected 6 customers, got %d", len(batch.Customers))
	}
	for i, c := range batch.Customers {
		if c.ID != int64(i+1) {
			t.Errorf("expected order preserved, got id %d at %d", c.ID, i)
		}
	}
	if got := m.maxFlight.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent lookups, got %d", got)
	}
}

func TestBatchGet_NotFoundIsMissing(t *testing.T) {
	m := &mockCustomers{errs: map[int64]error{
		2: &domain.ErrRotessaAPI{Status: http.StatusNotFound, Message: "not found"},
	}}
	d := newDirectory(m, 4)

	batch, err := d.BatchGet(context.Background(), []int64{1, 2, 3, 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(batch.Customers) != 2 || len(batch.Missing) != 1 || batch.Missing[0] != 2 {
		t.Errorf("unexpected batch %+v", batch)
	}
	if len(m.gets) != 3 {
		t.Errorf("expected duplicate ids fetched once, got %v", m.gets)
	}
}

func TestBatchGet_OtherFailureAborts(t *testing.T) {
	boom := &domain.ErrRotessaRequest{Kind: domain.RequestTimeout, Message: "timed out"}
	m := &mockCustomers{errs: map[int64]error{3: boom}}
	d := newDirectory(m, 1)

	_, err := d.BatchGet(context.Background(), []int64{1, 2, 3})
	var reqErr *domain.ErrRotessaRequest
	if !errors.As(err, &reqErr) || !reqErr.Timeout() {
		t.Fatalf("expected timeout request error, got %v", err)
	}
}

func TestBatchGet_Validation(t *testing.T) {
	d := newDirectory(&mockCustomers{}, 1)

	_, err := d.BatchGet(context.Background(), nil)
	expectValidation(t, err, "ids")

	_, err = d.BatchGet(context.Background(), make([]int64, service.MaxBatchSize+1))
	expectValidation(t, err, "ids")
}

func TestCustomerDirectory_Validation(t *testing.T) {
	d := newDirectory(&mockCustomers{}, 1)
	ctx := context.Background()

	_, err := d.Get(ctx, 0)
	expectValidation(t, err, "customerId")

	_, err = d.Lookup(ctx, "  ")
	expectValidation(t, err, "custom_identifier")

	_, err = d.Create(ctx, domain.CustomerCreate{})
	expectValidation(t, err, "name")

	_, err = d.Create(ctx, domain.CustomerCreate{Name: "A", CustomerType: "Other"})
	expectValidation(t, err, "customer_type")
}

func TestCustomerDirectory_UpdatePassesStrategy(t *testing.T) {
	m := &mockCustomers{}
	d := newDirectory(m, 1)

	c, err := d.Update(context.Background(), domain.UpdateViaPost, 4, domain.CustomerUpdate{Name: "B"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.strategy != domain.UpdateViaPost || c.ID != 4 {
		t.Errorf("unexpected update %v %+v", m.strategy, c)
	}
}

// --- Billing ---

func TestCreateSchedule_ByCustomerID(t *testing.T) {
	s := &mockSchedules{}
	b := newBilling(s, &mockReport{})

	_, err := b.CreateSchedule(context.Background(), &domain.ScheduleRequest{
		CustomerID:  7,
		Amount:      decimal.RequireFromString("12.34"),
		Frequency:   domain.FrequencyMonthly,
		ProcessDate: "2024-05-01",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.created == nil || s.created.CustomerID != 7 || s.createdCustom != nil {
		t.Errorf("expected create by id, got %+v %+v", s.created, s.createdCustom)
	}
}

func TestCreateSchedule_ByCustomIdentifier(t *testing.T) {
	s := &mockSchedules{}
	b := newBilling(s, &mockReport{})

	_, err := b.CreateSchedule(context.Background(), &domain.ScheduleRequest{
		CustomIdentifier: "CUST-1",
		Amount:           decimal.NewFromInt(5),
		Frequency:        domain.FrequencyOnce,
		ProcessDate:      "2024-05-01",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.createdCustom == nil || s.createdCustom.CustomIdentifier != "CUST-1" {
		t.Errorf("expected create by custom identifier, got %+v", s.createdCustom)
	}
}

func TestCreateSchedule_Validation(t *testing.T) {
	b := newBilling(&mockSchedules{}, &mockReport{})
	zero := 0
	valid := func() *domain.ScheduleRequest {
		return &domain.ScheduleRequest{
			CustomerID: 1, Amount: decimal.NewFromInt(1), Frequency: domain.FrequencyOnce, ProcessDate: "2024-01-01",
		}
	}

	cases := map[string]func(r *domain.ScheduleRequest){
		"customer_id":  func(r *domain.ScheduleRequest) { r.CustomerID = 0 },
		"amount":       func(r *domain.ScheduleRequest) { r.Amount = decimal.NewFromInt(-1) },
		"frequency":    func(r *domain.ScheduleRequest) { r.Frequency = "Daily" },
		"process_date": func(r *domain.ScheduleRequest) { r.ProcessDate = "01/01/2024" },
		"installments": func(r *domain.ScheduleRequest) { r.Installments = &zero },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			req := valid()
			mutate(req)
			_, err := b.CreateSchedule(context.Background(), req)
			expectValidation(t, err, field)
		})
	}
}

func TestDeleteSchedule(t *testing.T) {
	s := &mockSchedules{}
	b := newBilling(s, &mockReport{})

	if err := b.DeleteSchedule(context.Background(), 0); err == nil {
		t.Fatal("expected validation error")
	}
	if err := b.DeleteSchedule(context.Background(), 8); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.deleted != 8 {
		t.Errorf("expected schedule 8 deleted, got %d", s.deleted)
	}
}

func TestReport_Validation(t *testing.T) {
	r := &mockReport{}
	b := newBilling(&mockSchedules{}, r)
	ctx := context.Background()

	_, err := b.Report(ctx, domain.ReportQuery{})
	expectValidation(t, err, "start_date")

	_, err = b.Report(ctx, domain.ReportQuery{StartDate: "2024-13-01"})
	expectValidation(t, err, "start_date")

	_, err = b.Report(ctx, domain.ReportQuery{StartDate: "2024-01-01", Status: "Lost"})
	expectValidation(t, err, "status")

	if r.query != nil {
		t.Fatal("expected no provider call for invalid queries")
	}

	rows, err := b.Report(ctx, domain.ReportQuery{StartDate: "2024-01-01", Filter: domain.StatusDeclined, Page: 2})
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected rows, got %v %v", rows, err)
	}
	if r.query.Page != 2 || r.query.Filter != domain.StatusDeclined {
		t.Errorf("expected query passed through, got %+v", r.query)
	}
}

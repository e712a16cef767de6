package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/infra/observability"
	"github.com/boddenberg/rotessa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// MaxBatchSize caps the number of ids a single BatchGet accepts.
const MaxBatchSize = 100

// CustomerDirectory exposes Rotessa customers to the gateway.
type CustomerDirectory struct {
	customers      port.CustomerAPI
	maxConcurrency int
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewCustomerDirectory creates the customer service. maxConcurrency bounds the
// provider calls BatchGet runs at once.
func NewCustomerDirectory(customers port.CustomerAPI, maxConcurrency int, metrics *observability.Metrics, logger *zap.Logger) *CustomerDirectory {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &CustomerDirectory{
		customers:      customers,
		maxConcurrency: maxConcurrency,
		metrics:        metrics,
		logger:         logger,
	}
}

func (d *CustomerDirectory) List(ctx context.Context) ([]domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "CustomerDirectory.List")
	defer span.End()

	return d.customers.List(ctx)
}

func (d *CustomerDirectory) Get(ctx context.Context, id int64) (*domain.CustomerDetail, error) {
	ctx, span := tracer.Start(ctx, "CustomerDirectory.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("customer.id", id))

	if id <= 0 {
		return nil, &domain.ErrValidation{Field: "customerId", Message: "must be a positive integer"}
	}
	return d.customers.Get(ctx, id)
}

func (d *CustomerDirectory) Lookup(ctx context.Context, customIdentifier string) (*domain.CustomerDetail, error) {
	ctx, span := tracer.Start(ctx, "CustomerDirectory.Lookup")
	defer span.End()

	customIdentifier = strings.TrimSpace(customIdentifier)
	if customIdentifier == "" {
		return nil, &domain.ErrValidation{Field: "custom_identifier", Message: "required"}
	}
	return d.customers.GetByCustomIdentifier(ctx, customIdentifier)
}

func (d *CustomerDirectory) Create(ctx context.Context, in domain.CustomerCreate) (*domain.CustomerDetail, error) {
	ctx, span := tracer.Start(ctx, "CustomerDirectory.Create")
	defer span.End()

	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if in.CustomerType != "" && in.CustomerType != domain.CustomerPersonal && in.CustomerType != domain.CustomerBusiness {
		return nil, &domain.ErrValidation{Field: "customer_type", Message: "must be Personal or Business"}
	}
	return d.customers.Create(ctx, in)
}

func (d *CustomerDirectory) Update(ctx context.Context, strategy domain.UpdateStrategy, id int64, in domain.CustomerUpdate) (*domain.CustomerDetail, error) {
	ctx, span := tracer.Start(ctx, "CustomerDirectory.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("customer.id", id), attribute.String("update.strategy", string(strategy)))

	if id <= 0 {
		return nil, &domain.ErrValidation{Field: "customerId", Message: "must be a positive integer"}
	}
	return d.customers.UpdateWith(ctx, strategy, id, in)
}

// BatchGet fetches several customers concurrently, at most maxConcurrency at a
// time. Ids answered with 404 are reported as missing; any other failure
// cancels the remaining lookups and is returned. Results keep the order of ids.
func (d *CustomerDirectory) BatchGet(ctx context.Context, ids []int64) (*domain.CustomerBatch, error) {
	ctx, span := tracer.Start(ctx, "CustomerDirectory.BatchGet")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(ids)))

	start := time.Now()
	defer func() {
		d.metrics.RecordRequestDuration("customers.batch", time.Since(start))
	}()

	if len(ids) == 0 {
		return nil, &domain.ErrValidation{Field: "ids", Message: "at least one id is required"}
	}
	if len(ids) > MaxBatchSize {
		return nil, &domain.ErrValidation{Field: "ids", Message: "too many ids"}
	}

	var (
		mu      sync.Mutex
		found   = make(map[int64]*domain.CustomerDetail, len(ids))
		missing = make(map[int64]bool)
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxConcurrency)

	for _, id := range dedupe(ids) {
		id := id
		g.Go(func() error {
			c, err := d.customers.Get(gCtx, id)
			var apiErr *domain.ErrRotessaAPI
			switch {
			case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
				mu.Lock()
				missing[id] = true
				mu.Unlock()
				return nil
			case err != nil:
				d.logger.Error("batch customer lookup failed",
					zap.Int64("customer_id", id),
					zap.Error(err),
				)
				return err
			}
			mu.Lock()
			found[id] = c
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &domain.CustomerBatch{Customers: make([]domain.CustomerDetail, 0, len(found))}
	for _, id := range dedupe(ids) {
		switch {
		case found[id] != nil:
			batch.Customers = append(batch.Customers, *found[id])
		case missing[id]:
			batch.Missing = append(batch.Missing, id)
		}
	}
	return batch, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/infra/observability"
	"github.com/boddenberg/rotessa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps are the collaborators of the gateway router.
// Breaker is nil when the circuit breaker is disabled.
type Deps struct {
	Customers *service.CustomerDirectory
	Billing   *service.Billing
	Breaker   *gobreaker.CircuitBreaker
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	logger := d.Logger

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Breaker))
	r.Get("/readyz", readyzHandler(d.Customers != nil && d.Billing != nil))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/rotessa", rotessaMetricsHandler(d.Metrics))

		if d.Customers == nil || d.Billing == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "rotessa client not configured")
			}))
			return
		}

		// =============================================
		// Customers
		// =============================================
		r.Get("/customers", listCustomersHandler(d.Customers, logger))
		r.Get("/customers/batch", batchCustomersHandler(d.Customers, logger))
		r.Get("/customers/lookup", lookupCustomerHandler(d.Customers, logger))
		r.Get("/customers/{customerId}", getCustomerHandler(d.Customers, logger))
		r.Post("/customers", createCustomerHandler(d.Customers, logger))
		r.Patch("/customers/{customerId}", updateCustomerHandler(d.Customers, logger))

		// =============================================
		// Transaction schedules
		// =============================================
		r.Get("/transaction-schedules/{scheduleId}", getScheduleHandler(d.Billing, logger))
		r.Post("/transaction-schedules", createScheduleHandler(d.Billing, logger))
		r.Patch("/transaction-schedules/{scheduleId}", updateScheduleHandler(d.Billing, logger))
		r.Delete("/transaction-schedules/{scheduleId}", deleteScheduleHandler(d.Billing, logger))

		// =============================================
		// Transaction report
		// =============================================
		r.Get("/transaction-report", transactionReportHandler(d.Billing, logger))
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(cb *gobreaker.CircuitBreaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		rotessaHealth := domain.ServiceHealth{Name: "rotessa", Status: "healthy", LastChecked: now}
		if cb == nil {
			rotessaHealth.Detail = "circuit breaker disabled"
		} else {
			rotessaHealth.Detail = "circuit " + cb.State().String()
			switch cb.State() {
			case gobreaker.StateOpen:
				rotessaHealth.Status = "unhealthy"
			case gobreaker.StateHalfOpen:
				rotessaHealth.Status = "degraded"
			}
		}

		services := []domain.ServiceHealth{
			{Name: "rotessa-gateway", Status: "healthy", LastChecked: now},
			rotessaHealth,
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(ready bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func rotessaMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

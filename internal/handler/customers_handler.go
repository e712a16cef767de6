package handler

import (
	"net/http"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Customers
// ============================================================

func listCustomersHandler(svc *service.CustomerDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers")
		defer span.End()

		customers, err := svc.List(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Customer]{Data: customers, Total: len(customers)})
	}
}

func batchCustomersHandler(svc *service.CustomerDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/batch")
		defer span.End()

		ids, err := parseIDs(r.URL.Query().Get("ids"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		batch, err := svc.BatchGet(ctx, ids)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, batch)
	}
}

func lookupCustomerHandler(svc *service.CustomerDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/lookup")
		defer span.End()

		customer, err := svc.Lookup(ctx, r.URL.Query().Get("custom_identifier"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	}
}

func getCustomerHandler(svc *service.CustomerDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers/{customerId}")
		defer span.End()

		id, err := pathID(r, "customerId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("customer.id", id))

		customer, err := svc.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	}
}

func createCustomerHandler(svc *service.CustomerDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/customers")
		defer span.End()

		var req domain.CustomerCreate
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		customer, err := svc.Create(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("customer created", zap.Int64("customer_id", customer.ID))
		writeJSON(w, http.StatusCreated, customer)
	}
}

// updateCustomerHandler selects the provider endpoint with ?strategy=patch|post.
func updateCustomerHandler(svc *service.CustomerDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/customers/{customerId}")
		defer span.End()

		id, err := pathID(r, "customerId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		strategy, err := domain.ParseUpdateStrategy(r.URL.Query().Get("strategy"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		var req domain.CustomerUpdate
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		customer, err := svc.Update(ctx, strategy, id, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	}
}

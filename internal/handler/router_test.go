package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/handler"
	"github.com/boddenberg/rotessa-go/internal/infra/observability"
	"github.com/boddenberg/rotessa-go/internal/infra/resilience"
	"github.com/boddenberg/rotessa-go/internal/infra/rotessa"
	"github.com/boddenberg/rotessa-go/internal/service"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// --- Harness ---

type upstreamCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type gateway struct {
	router  http.Handler
	metrics *observability.Metrics
	breaker *gobreaker.CircuitBreaker

	mu    sync.Mutex
	calls []upstreamCall
}

func (g *gateway) Calls() []upstreamCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]upstreamCall(nil), g.calls...)
}

// newGateway wires the full stack against a fake Rotessa server.
func newGateway(t *testing.T, upstream http.HandlerFunc) *gateway {
	t.Helper()
	g := &gateway{
		metrics: observability.NewMetrics(),
		breaker: resilience.NewCircuitBreaker("rotessa"),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.calls = append(g.calls, upstreamCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		g.mu.Unlock()
		upstream(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client, err := rotessa.New(rotessa.Config{
		APIKey:  "gateway-key",
		BaseURL: srv.URL + "/v1",
		Timeout: 100 * time.Millisecond,
		Transport: observability.InstrumentTransport(g.metrics,
			resilience.BreakerTransport(g.breaker, srv.Client().Do)),
		Reporter: observability.NewReporter(logger, g.metrics),
	})
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}

	g.router = handler.NewRouter(handler.Deps{
		Customers: service.NewCustomerDirectory(client.Customers, 4, g.metrics, logger),
		Billing:   service.NewBilling(client.TransactionSchedules, client.TransactionReport, g.metrics, logger),
		Breaker:   g.breaker,
		Metrics:   g.metrics,
		Logger:    logger,
	})
	return g
}

func (g *gateway) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)
	return rec
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var resp domain.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("expected JSON error body, got %v", err)
	}
	return resp
}

// --- Operational ---

func TestHealthz(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `{}`))

	rec := g.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var health domain.HealthStatus
	_ = json.NewDecoder(rec.Body).Decode(&health)
	if health.Status != "healthy" || len(health.Services) != 2 {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestReadyz(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `{}`))

	if rec := g.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `[]`))
	g.do(t, http.MethodGet, "/v1/customers", "")

	rec := g.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `rotessa_calls_total{outcome="2xx"} 1`) {
		t.Errorf("expected call counter in exposition, got:\n%s", rec.Body.String())
	}
}

func TestUnconfiguredRouter(t *testing.T) {
	router := handler.NewRouter(handler.Deps{Metrics: observability.NewMetrics(), Logger: zap.NewNop()})

	for _, target := range []string{"/readyz", "/v1/customers"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected healthz to work without a client, got %d", rec.Code)
	}
}

// --- Customers ---

func TestGetCustomer(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `{"id": 123, "name": "Mikey", "active": true}`))

	rec := g.do(t, http.MethodGet, "/v1/customers/123", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	calls := g.Calls()
	if len(calls) != 1 || calls[0].Method != http.MethodGet || calls[0].Path != "/v1/customers/123" {
		t.Fatalf("unexpected upstream calls %+v", calls)
	}
	if calls[0].Auth != `Token token="gateway-key"` {
		t.Errorf("unexpected auth header %q", calls[0].Auth)
	}

	var customer domain.CustomerDetail
	_ = json.NewDecoder(rec.Body).Decode(&customer)
	if customer.ID != 123 || customer.Name != "Mikey" {
		t.Errorf("unexpected customer %+v", customer)
	}
}

func TestGetCustomer_BadID(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `{}`))

	rec := g.do(t, http.MethodGet, "/v1/customers/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(g.Calls()) != 0 {
		t.Error("expected no upstream call")
	}
}

func TestProviderRejectionKeepsStatusAndErrors(t *testing.T) {
	g := newGateway(t, reply(http.StatusUnprocessableEntity,
		`{"errors": [{"error_code": "invalid_name", "error_message": "Name can't be blank"}]}`))

	rec := g.do(t, http.MethodPost, "/v1/customers", `{"name": "x"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "Name can't be blank" || resp.Kind != "api_error" || resp.Upstream != 422 {
		t.Errorf("unexpected error response %+v", resp)
	}
	if len(resp.Details) != 1 || resp.Details[0].ErrorCode != "invalid_name" {
		t.Errorf("expected normalized details, got %+v", resp.Details)
	}
	if resp.CallID == "" {
		t.Error("expected call id")
	}
}

func TestProviderServerErrorIsBadGateway(t *testing.T) {
	g := newGateway(t, reply(http.StatusInternalServerError, `oops`))

	rec := g.do(t, http.MethodGet, "/v1/customers", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Upstream != 500 || resp.Error != "Rotessa request failed with status 500" {
		t.Errorf("unexpected error response %+v", resp)
	}
}

func TestProviderTimeoutIsGatewayTimeout(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	rec := g.do(t, http.MethodGet, "/v1/customers/1", "")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Kind != "timeout" {
		t.Errorf("expected timeout kind, got %+v", resp)
	}
	if snap := g.metrics.Snapshot(); snap.Timeouts != 1 {
		t.Errorf("expected timeout counted, got %+v", snap)
	}
}

func TestEmptySuccessIsBadGateway(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, ``))

	rec := g.do(t, http.MethodGet, "/v1/customers/1", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Kind != "unexpected_response" {
		t.Errorf("unexpected error response %+v", resp)
	}
}

func TestCircuitOpenIsServiceUnavailable(t *testing.T) {
	g := newGateway(t, reply(http.StatusServiceUnavailable, `{}`))

	for i := 0; i < 5; i++ {
		if rec := g.do(t, http.MethodGet, "/v1/customers", ""); rec.Code != http.StatusBadGateway {
			t.Fatalf("call %d: expected 502, got %d", i, rec.Code)
		}
	}

	rec := g.do(t, http.MethodGet, "/v1/customers", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Kind != "circuit_open" {
		t.Errorf("unexpected error response %+v", resp)
	}
	if len(g.Calls()) != 5 {
		t.Errorf("expected open circuit to skip upstream, got %d calls", len(g.Calls()))
	}

	health := g.do(t, http.MethodGet, "/healthz", "")
	if !strings.Contains(health.Body.String(), `"unhealthy"`) {
		t.Errorf("expected unhealthy status, got %s", health.Body.String())
	}
}

func TestBatchCustomers(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/customers/2" {
			reply(http.StatusNotFound, `{"errors": [{"error_code": "not_found", "error_message": "Not found"}]}`)(w, r)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/v1/customers/")
		reply(http.StatusOK, `{"id": `+id+`, "name": "C`+id+`"}`)(w, r)
	})

	rec := g.do(t, http.MethodGet, "/v1/customers/batch?ids=1,2,3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var batch domain.CustomerBatch
	_ = json.NewDecoder(rec.Body).Decode(&batch)
	if len(batch.Customers) != 2 || batch.Customers[0].ID != 1 || batch.Customers[1].ID != 3 {
		t.Errorf("unexpected customers %+v", batch.Customers)
	}
	if len(batch.Missing) != 1 || batch.Missing[0] != 2 {
		t.Errorf("unexpected missing %v", batch.Missing)
	}

	if rec := g.do(t, http.MethodGet, "/v1/customers/batch?ids=1,x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad ids, got %d", rec.Code)
	}
}

func TestLookupCustomer(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `{"id": 5, "custom_identifier": "CUST-5"}`))

	rec := g.do(t, http.MethodGet, "/v1/customers/lookup?custom_identifier=CUST-5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	call := g.Calls()[0]
	if call.Method != http.MethodPost || call.Path != "/v1/customers/show_with_custom_identifier" {
		t.Errorf("unexpected upstream call %+v", call)
	}
	if call.Body != `{"custom_identifier":"CUST-5"}` {
		t.Errorf("unexpected upstream body %s", call.Body)
	}
}

func TestUpdateCustomer_Strategies(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `{"id": 7, "name": "New"}`))

	if rec := g.do(t, http.MethodPatch, "/v1/customers/7", `{"name": "New"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := g.do(t, http.MethodPatch, "/v1/customers/7?strategy=post", `{"name": "New"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := g.do(t, http.MethodPatch, "/v1/customers/7?strategy=put", `{"name": "New"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown strategy, got %d", rec.Code)
	}

	calls := g.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", len(calls))
	}
	if calls[0].Method != http.MethodPatch || calls[0].Path != "/v1/customers/7" {
		t.Errorf("unexpected patch call %+v", calls[0])
	}
	if calls[1].Method != http.MethodPost || calls[1].Path != "/v1/customers/update_via_post" {
		t.Errorf("unexpected post call %+v", calls[1])
	}
}

// --- Schedules & report ---

func TestCreateSchedule(t *testing.T) {
	g := newGateway(t, reply(http.StatusCreated, `{"id": 11, "amount": "10.00", "frequency": "Monthly", "process_date": "2024-06-01"}`))

	rec := g.do(t, http.MethodPost, "/v1/transaction-schedules",
		`{"customer_id": 3, "amount": "10.00", "frequency": "Monthly", "process_date": "2024-06-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	call := g.Calls()[0]
	if call.Method != http.MethodPost || call.Path != "/v1/transaction_schedules" {
		t.Errorf("unexpected upstream call %+v", call)
	}
	if !strings.Contains(call.Body, `"amount":"10"`) {
		t.Errorf("expected decimal amount in body, got %s", call.Body)
	}
}

func TestCreateSchedule_Invalid(t *testing.T) {
	g := newGateway(t, reply(http.StatusCreated, `{}`))

	rec := g.do(t, http.MethodPost, "/v1/transaction-schedules",
		`{"customer_id": 3, "amount": "10.00", "frequency": "Daily", "process_date": "2024-06-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := g.do(t, http.MethodPost, "/v1/transaction-schedules", `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
	if len(g.Calls()) != 0 {
		t.Error("expected no upstream call")
	}
}

func TestDeleteSchedule(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, ``))

	rec := g.do(t, http.MethodDelete, "/v1/transaction-schedules/9", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if call := g.Calls()[0]; call.Method != http.MethodDelete || call.Path != "/v1/transaction_schedules/9" {
		t.Errorf("unexpected upstream call %+v", call)
	}
}

func TestTransactionReport(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `[{"id": 1, "amount": "5.00", "status": "Approved", "status_reason": null}]`))

	rec := g.do(t, http.MethodGet, "/v1/transaction-report?start_date=2024-01-01&status=Approved&page=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	call := g.Calls()[0]
	if call.Path != "/v1/transaction_report" || !strings.Contains(call.Query, "start_date=2024-01-01") || !strings.Contains(call.Query, "page=3") {
		t.Errorf("unexpected upstream call %+v", call)
	}

	var list domain.ListResponse[domain.TransactionReportItem]
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if list.Total != 1 || list.Page != 3 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestTransactionReport_RequiresStartDate(t *testing.T) {
	g := newGateway(t, reply(http.StatusOK, `[]`))

	rec := g.do(t, http.MethodGet, "/v1/transaction-report?status=Approved", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Kind != "validation" {
		t.Errorf("unexpected error response %+v", resp)
	}
}

func TestRotessaMetricsEndpoint(t *testing.T) {
	g := newGateway(t, reply(http.StatusNotFound, `{}`))
	g.do(t, http.MethodGet, "/v1/customers/1", "")

	rec := g.do(t, http.MethodGet, "/v1/metrics/rotessa", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap domain.RotessaMetrics
	_ = json.NewDecoder(rec.Body).Decode(&snap)
	if snap.TotalCalls != 1 || snap.APIErrors != 1 || snap.CallsByOutcome["4xx"] != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

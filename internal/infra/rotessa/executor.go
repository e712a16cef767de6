package rotessa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("rotessa")

// errClientTimeout is the cancellation cause of the executor's own timer.
var errClientTimeout = errors.New("rotessa client timeout")

// Transport performs one HTTP round trip. http.Client.Do satisfies it.
type Transport func(req *http.Request) (*http.Response, error)

// Reporter receives every error produced by the client before it is returned.
type Reporter func(err error)

// Query is a sparse set of query parameters. Nil values and nil pointers are skipped.
type Query map[string]any

// RequestOptions carries the per-call inputs of Perform.
type RequestOptions struct {
	PathParams map[string]string
	Query      Query
	Body       any
	Timeout    time.Duration // overrides the client timeout when positive
}

type routeKey struct{}

// RouteFromRequest returns the path template a request was built from,
// so transports can label calls without the high-cardinality resolved path.
func RouteFromRequest(req *http.Request) string {
	if route, ok := req.Context().Value(routeKey{}).(string); ok {
		return route
	}
	return req.URL.Path
}

// Executor performs single HTTP calls against the provider and classifies failures.
// It holds no mutable state and is safe for concurrent use.
type Executor struct {
	apiKey    string
	baseURL   string
	timeout   time.Duration
	transport Transport
	reporter  Reporter
}

type response struct {
	status  int
	payload json.RawMessage
	raw     string
}

// Perform executes one request and returns the parsed payload, which is nil
// when the body was empty or not JSON.
func (e *Executor) Perform(ctx context.Context, method, pathTemplate string, opts RequestOptions) (json.RawMessage, error) {
	resp, err := e.do(ctx, method, pathTemplate, opts)
	if err != nil {
		return nil, err
	}
	return resp.payload, nil
}

func (e *Executor) do(ctx context.Context, method, pathTemplate string, opts RequestOptions) (*response, error) {
	callID := uuid.NewString()

	ctx, span := tracer.Start(ctx, fmt.Sprintf("Rotessa %s %s", method, pathTemplate))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("rotessa.route", pathTemplate),
		attribute.String("rotessa.call_id", callID),
	)

	buildErr := func(path string, err error) error {
		return e.fail(span, &domain.ErrRotessaRequest{
			Kind:    domain.RequestBuild,
			Method:  method,
			Path:    path,
			Message: "Rotessa request could not be built: " + err.Error(),
			CallID:  callID,
			Err:     err,
		})
	}

	path, err := resolvePath(pathTemplate, opts.PathParams)
	if err != nil {
		return nil, buildErr(pathTemplate, err)
	}

	fullURL := strings.TrimRight(e.baseURL, "/") + path
	if encoded := opts.Query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var body io.Reader
	if method != http.MethodGet && opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, buildErr(path, fmt.Errorf("encode body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	timeout := e.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeoutCause(ctx, timeout, errClientTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(context.WithValue(ctx, routeKey{}, pathTemplate), method, fullURL, body)
	if err != nil {
		return nil, buildErr(path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf(`Token token="%s"`, e.apiKey))

	httpResp, err := e.roundTrip(ctx, req)
	if err != nil {
		return nil, e.fail(span, transportError(ctx, method, path, callID, timeout, err))
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, e.fail(span, transportError(ctx, method, path, callID, timeout, err))
	}

	resp := &response{
		status:  httpResp.StatusCode,
		payload: parsePayload(rawBody),
		raw:     string(rawBody),
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.status))

	if resp.status < 200 || resp.status >= 300 {
		details := normalizeErrors(resp.payload)
		message := fmt.Sprintf("Rotessa request failed with status %d", resp.status)
		if len(details) > 0 && details[0].ErrorMessage != "" {
			message = details[0].ErrorMessage
		}
		return nil, e.fail(span, &domain.ErrRotessaAPI{
			Status:  resp.status,
			Method:  method,
			Path:    path,
			Message: message,
			Errors:  details,
			Payload: resp.payload,
			Raw:     resp.raw,
			CallID:  callID,
		})
	}

	return resp, nil
}

// roundTrip runs the transport on its own goroutine so that a transport which
// ignores cancellation still cannot hold the call past ctx.
func (e *Executor) roundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := e.transport(req)
		done <- result{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.resp == nil {
			return nil, errors.New("transport returned neither response nor error")
		}
		if r.err == nil && r.resp.Body == nil {
			r.resp.Body = http.NoBody
		}
		return r.resp, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.resp != nil && r.resp.Body != nil {
				r.resp.Body.Close()
			}
		}()
		return nil, context.Cause(ctx)
	}
}

func (e *Executor) fail(span trace.Span, err error) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	e.report(err)
	return err
}

// report hands err to the reporter. A panicking reporter is contained.
func (e *Executor) report(err error) {
	if e.reporter == nil {
		return
	}
	defer func() { _ = recover() }()
	e.reporter(err)
}

func transportError(ctx context.Context, method, path, callID string, timeout time.Duration, err error) *domain.ErrRotessaRequest {
	kind := domain.RequestNetwork
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, errClientTimeout):
		kind = domain.RequestTimeout
	case ctx.Err() != nil && errors.Is(cause, context.DeadlineExceeded):
		kind = domain.RequestTimeout
	case ctx.Err() != nil:
		kind = domain.RequestCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.RequestTimeout
	case errors.Is(err, context.Canceled):
		kind = domain.RequestCanceled
	}

	var message string
	switch kind {
	case domain.RequestTimeout:
		message = fmt.Sprintf("Rotessa request timed out after %dms", timeout.Milliseconds())
	case domain.RequestCanceled:
		message = "Rotessa request was canceled"
	default:
		message = "Rotessa request failed"
	}

	return &domain.ErrRotessaRequest{
		Kind:    kind,
		Method:  method,
		Path:    path,
		Message: message,
		CallID:  callID,
		Err:     err,
	}
}

// resolvePath substitutes every {name} placeholder with its escaped value.
func resolvePath(template string, params map[string]string) (string, error) {
	var missing string
	resolved := placeholderRE.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		value, ok := params[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return token
		}
		return url.PathEscape(value)
	})
	if missing != "" {
		return "", fmt.Errorf("missing path parameter %q for %s", missing, template)
	}
	return resolved, nil
}

// Encode form-encodes the non-nil values of q, sorted by key.
func (q Query) Encode() string {
	values := url.Values{}
	for key, v := range q {
		if list, ok := v.([]string); ok {
			for _, s := range list {
				values.Add(key, s)
			}
			continue
		}
		if s, ok := queryValue(v); ok {
			values.Set(key, s)
		}
	}
	return values.Encode()
}

func queryValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		v = rv.Elem().Interface()
	}
	switch t := v.(type) {
	case string:
		return t, true
	case time.Time:
		return t.Format(time.DateOnly), true
	case fmt.Stringer:
		return t.String(), true
	}
	return fmt.Sprint(v), true
}

// parsePayload returns the body as JSON, or nil when it is empty, null or invalid.
func parsePayload(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.RawMessage(trimmed)
}

// normalizeErrors extracts {error_code, error_message} pairs from the provider's
// `{"errors": [...]}` shape, dropping entries that carry neither field.
func normalizeErrors(payload json.RawMessage) []domain.ErrorDetail {
	if payload == nil {
		return nil
	}
	var shape struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(payload, &shape); err != nil {
		return nil
	}

	var details []domain.ErrorDetail
	for _, raw := range shape.Errors {
		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		detail := domain.ErrorDetail{
			ErrorCode:    stringField(entry["error_code"]),
			ErrorMessage: stringField(entry["error_message"]),
		}
		if detail.ErrorCode == "" && detail.ErrorMessage == "" {
			continue
		}
		details = append(details, detail)
	}
	return details
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprint(t)
	}
	return ""
}

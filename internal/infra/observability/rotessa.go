package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/infra/rotessa"

	"go.uber.org/zap"
)

// NewReporter returns a rotessa.Reporter that logs each client error with
// zap and counts it by kind. Provider rejections log at Warn, everything
// else at Error.
func NewReporter(logger *zap.Logger, metrics *Metrics) rotessa.Reporter {
	return func(err error) {
		var (
			apiErr     *domain.ErrRotessaAPI
			reqErr     *domain.ErrRotessaRequest
			unexpected *domain.ErrUnexpectedResponse
		)
		switch {
		case errors.As(err, &apiErr):
			metrics.IncrFailure(FailureAPI)
			logger.Warn("rotessa api error",
				zap.Int("status", apiErr.Status),
				zap.String("method", apiErr.Method),
				zap.String("path", apiErr.Path),
				zap.Strings("codes", apiErr.Codes()),
				zap.String("call_id", apiErr.CallID),
				zap.String("message", apiErr.Message),
			)
		case errors.As(err, &reqErr):
			metrics.IncrFailure(string(reqErr.Kind))
			logger.Error("rotessa request error",
				zap.String("kind", string(reqErr.Kind)),
				zap.String("method", reqErr.Method),
				zap.String("path", reqErr.Path),
				zap.String("call_id", reqErr.CallID),
				zap.Error(err),
			)
		case errors.As(err, &unexpected):
			metrics.IncrFailure(FailureUnexpected)
			logger.Error("rotessa unexpected response",
				zap.String("endpoint", unexpected.Endpoint),
				zap.Int("status", unexpected.Status),
				zap.Error(err),
			)
		default:
			logger.Error("rotessa error", zap.Error(err))
		}
	}
}

// InstrumentTransport times every round trip of next, labelled with the
// route template and the status class.
func InstrumentTransport(metrics *Metrics, next rotessa.Transport) rotessa.Transport {
	return func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next(req)

		outcome := "error"
		if err == nil && resp != nil {
			outcome = strconv.Itoa(resp.StatusCode/100) + "xx"
		}
		metrics.RecordCall(rotessa.RouteFromRequest(req), outcome, time.Since(start))
		return resp, err
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/rotessa-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ErrValidation{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// parseIDs reads a comma separated id list such as ?ids=1,2,3.
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, &domain.ErrValidation{Field: "ids", Message: "must be comma separated positive integers"}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid request body"}
	}
	return nil
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var circuitOpen *domain.ErrCircuitOpen
	var apiErr *domain.ErrRotessaAPI
	var reqErr *domain.ErrRotessaRequest
	var unexpected *domain.ErrUnexpectedResponse

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{Error: err.Error(), Kind: "validation"})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status >= 500 || status < 400 {
			status = http.StatusBadGateway
		}
		logger.Debug("rotessa rejected request", zap.Int("upstream_status", apiErr.Status), zap.String("error", err.Error()))
		writeJSON(w, status, domain.ErrorResponse{
			Error:    apiErr.Message,
			Kind:     "api_error",
			Upstream: apiErr.Status,
			Details:  apiErr.Errors,
			CallID:   apiErr.CallID,
		})
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		resp := domain.ErrorResponse{Error: err.Error(), Kind: "circuit_open"}
		if errors.As(err, &reqErr) {
			resp.CallID = reqErr.CallID
		}
		writeJSON(w, http.StatusServiceUnavailable, resp)
	case errors.As(err, &reqErr):
		status := http.StatusBadGateway
		if reqErr.Timeout() {
			status = http.StatusGatewayTimeout
		}
		logger.Error("rotessa request failed", zap.String("kind", string(reqErr.Kind)), zap.Error(err))
		writeJSON(w, status, domain.ErrorResponse{Error: reqErr.Message, Kind: string(reqErr.Kind), CallID: reqErr.CallID})
	case errors.As(err, &unexpected):
		logger.Error("unexpected rotessa response", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, domain.ErrorResponse{Error: err.Error(), Kind: "unexpected_response"})
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the Rotessa client.
// The API and request errors are disjoint: a caller that gets one of them
// knows whether the provider answered or not.

// ErrConfig indicates the client could not be constructed.
type ErrConfig struct {
	Field   string
	Message string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("rotessa config error on '%s': %s", e.Field, e.Message)
}

// ErrorDetail is one entry of the provider's `errors` array.
type ErrorDetail struct {
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ErrRotessaAPI indicates the provider answered with a non-2xx status.
type ErrRotessaAPI struct {
	Status  int
	Method  string
	Path    string
	Message string
	Errors  []ErrorDetail
	Payload []byte // nil when the body was empty or not JSON
	Raw     string
	CallID  string
}

func (e *ErrRotessaAPI) Error() string {
	return e.Message
}

// Codes returns the error codes reported by the provider, in order.
func (e *ErrRotessaAPI) Codes() []string {
	codes := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		if d.ErrorCode != "" {
			codes = append(codes, d.ErrorCode)
		}
	}
	return codes
}

// RequestFailure says why a request never got a usable answer.
type RequestFailure string

const (
	RequestBuild    RequestFailure = "build"
	RequestTimeout  RequestFailure = "timeout"
	RequestCanceled RequestFailure = "canceled"
	RequestNetwork  RequestFailure = "network"
)

// ErrRotessaRequest indicates the request could not be completed: it was never
// sent, or no response came back.
type ErrRotessaRequest struct {
	Kind    RequestFailure
	Method  string
	Path    string
	Message string
	CallID  string
	Err     error
}

func (e *ErrRotessaRequest) Error() string {
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ErrRotessaRequest) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request was aborted by a deadline.
func (e *ErrRotessaRequest) Timeout() bool {
	return e.Kind == RequestTimeout
}

// ErrUnexpectedResponse indicates a 2xx answer whose body could not be used
// by an endpoint that expects data.
type ErrUnexpectedResponse struct {
	Endpoint string
	Status   int
	Raw      string
	Err      error
}

func (e *ErrUnexpectedResponse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from %s (status %d): %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("unexpected response from %s (status %d): empty or invalid body", e.Endpoint, e.Status)
}

func (e *ErrUnexpectedResponse) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

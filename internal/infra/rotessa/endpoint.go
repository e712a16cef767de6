package rotessa

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
)

// Args are the inputs of a bound endpoint call.
type Args struct {
	PathParams map[string]string
	Query      Query
	Body       any
	Timeout    time.Duration
}

// Endpoint is a typed callable derived from an EndpointSpec.
type Endpoint[T any] func(ctx context.Context, args Args) (T, error)

// Bind turns a manifest entry into a typed callable. Method and path come from
// the spec; required query params declared there are checked before any I/O;
// the payload is decoded into T when the spec says the endpoint returns data.
func Bind[T any](e *Executor, spec EndpointSpec) Endpoint[T] {
	var required []string
	for _, p := range spec.ParamsIn(InQuery) {
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return func(ctx context.Context, args Args) (T, error) {
		var out T

		for _, name := range required {
			if _, ok := queryValue(args.Query[name]); !ok {
				err := &domain.ErrRotessaRequest{
					Kind:    domain.RequestBuild,
					Method:  spec.Method,
					Path:    spec.Path,
					Message: fmt.Sprintf("Rotessa request could not be built: missing required query parameter %q", name),
				}
				e.report(err)
				return out, err
			}
		}

		resp, err := e.do(ctx, spec.Method, spec.Path, RequestOptions{
			PathParams: args.PathParams,
			Query:      args.Query,
			Body:       args.Body,
			Timeout:    args.Timeout,
		})
		if err != nil {
			return out, err
		}
		if !spec.Returns {
			return out, nil
		}

		if resp.payload == nil {
			return out, e.unexpected(spec, resp, nil)
		}
		if err := json.Unmarshal(resp.payload, &out); err != nil {
			return out, e.unexpected(spec, resp, err)
		}
		return out, nil
	}
}

func (e *Executor) unexpected(spec EndpointSpec, resp *response, err error) error {
	uerr := &domain.ErrUnexpectedResponse{
		Endpoint: spec.Name,
		Status:   resp.status,
		Raw:      resp.raw,
		Err:      err,
	}
	e.report(uerr)
	return uerr
}

// Package rotessa is a typed client for the Rotessa payments API.
//
// Every call goes through one executor that builds the request, bounds it
// with its own timeout and classifies failures as either
// *domain.ErrRotessaAPI (the provider answered with an error status) or
// *domain.ErrRotessaRequest (no usable answer was obtained).
package rotessa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/rotessa-go/internal/domain"
)

// Provider hosts.
const (
	ProductionBaseURL = "https://api.rotessa.com/v1"
	SandboxBaseURL    = "https://sandbox-api.rotessa.com/v1"
)

// BaseURLFor picks the provider host: an explicit URL wins, otherwise the
// sandbox or production host. An empty result lets Config fall back to the
// environment.
func BaseURLFor(explicit string, sandbox bool) string {
	if explicit != "" {
		return explicit
	}
	if sandbox {
		return SandboxBaseURL
	}
	return ""
}

// DefaultTimeout bounds every call unless configured otherwise.
const DefaultTimeout = 15 * time.Second

// Environment fallbacks used when a Config field is left empty.
const (
	EnvAPIKey    = "ROTESSA_API_KEY"
	EnvBaseURL   = "ROTESSA_BASE_URL"
	EnvTimeoutMs = "ROTESSA_TIMEOUT_MS"
)

// Config holds the client settings. Zero fields fall back to the environment,
// then to built-in defaults.
type Config struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	Transport Transport
	Reporter  Reporter
}

var defaultHTTPClient = &http.Client{}

func (c Config) resolve() (Config, error) {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		c.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	if c.APIKey == "" {
		return c, &domain.ErrConfig{Field: "api_key", Message: "no API key provided and " + EnvAPIKey + " is not set"}
	}

	if c.BaseURL == "" {
		c.BaseURL = strings.TrimSpace(os.Getenv(EnvBaseURL))
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return c, &domain.ErrConfig{Field: "base_url", Message: "must be an absolute http(s) URL"}
	}

	if c.Timeout < 0 {
		return c, &domain.ErrConfig{Field: "timeout", Message: "must be positive"}
	}
	if c.Timeout == 0 {
		if ms, err := strconv.Atoi(os.Getenv(EnvTimeoutMs)); err == nil && ms > 0 {
			c.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Transport == nil {
		c.Transport = defaultHTTPClient.Do
	}
	return c, nil
}

// Client exposes the provider's resources. It is immutable after New and safe
// for concurrent use.
type Client struct {
	cfg  Config
	exec *Executor

	Customers            *CustomersAPI
	TransactionSchedules *TransactionSchedulesAPI
	TransactionReport    *TransactionReportAPI
}

// New resolves cfg and builds a client. It fails with *domain.ErrConfig when
// no API key can be found.
func New(cfg Config) (*Client, error) {
	resolved, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	exec := &Executor{
		apiKey:    resolved.APIKey,
		baseURL:   resolved.BaseURL,
		timeout:   resolved.Timeout,
		transport: resolved.Transport,
		reporter:  resolved.Reporter,
	}

	return &Client{
		cfg:                  resolved,
		exec:                 exec,
		Customers:            newCustomersAPI(exec),
		TransactionSchedules: newTransactionSchedulesAPI(exec),
		TransactionReport:    newTransactionReportAPI(exec),
	}, nil
}

// BaseURL returns the resolved provider URL.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Timeout returns the resolved per-call timeout.
func (c *Client) Timeout() time.Duration { return c.cfg.Timeout }

// Request calls any endpoint, wrapped or not, with the same request building
// and failure classification as the typed methods. The payload is nil when
// the provider sent no JSON body.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions) (json.RawMessage, error) {
	return c.exec.Perform(ctx, method, path, opts)
}

func idParams(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}

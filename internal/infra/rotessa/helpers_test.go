package rotessa_test

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/boddenberg/rotessa-go/internal/infra/rotessa"
)

const testBaseURL = "https://api.rotessa.test/v1"

// --- Fakes ---

type recordedCall struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

type fakeTransport struct {
	mu     sync.Mutex
	calls  []recordedCall
	status int
	body   string
	err    error
}

func (f *fakeTransport) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	f.calls = append(f.calls, recordedCall{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   string(body),
	})

	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func (f *fakeTransport) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestClient(t *testing.T, ft *fakeTransport, opts ...func(*rotessa.Config)) *rotessa.Client {
	t.Helper()
	cfg := rotessa.Config{
		APIKey:    "test-key",
		BaseURL:   testBaseURL,
		Transport: ft.Do,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	c, err := rotessa.New(cfg)
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	return c
}

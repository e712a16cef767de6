package rotessa

import "sync"

var (
	sharedMu sync.Mutex
	shared   *Client
)

// GetClient returns the process-wide client, building it from cfg on the first
// successful call. Later calls ignore cfg until ResetClient.
func GetClient(cfg Config) (*Client, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared, nil
	}
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	shared = c
	return shared, nil
}

// ResetClient discards the process-wide client so the next GetClient rebuilds it.
func ResetClient() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	shared = nil
}

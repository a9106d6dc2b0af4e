package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const fetchTimeout = 15 * time.Second

// HTTPProvider fetches snapshots from a JSON weather endpoint.
//
// The endpoint returns the Snapshot shape directly; bridging a vendor
// API with a different schema means implementing Provider separately
// and passing it via Options.NewProvider.
type HTTPProvider struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPProvider builds an HTTPProvider from entry data.
//
// Entry data fields:
//   - url: The endpoint to poll. Required.
//   - api_key: Sent as a bearer token when present.
//
// Returns:
//   - Provider: Ready to fetch
//   - error: wrapping ErrInvalidConfig when url is missing
func NewHTTPProvider(data map[string]any) (Provider, error) {
	url, _ := data["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("%w: missing url", ErrInvalidConfig)
	}
	apiKey, _ := data["api_key"].(string)

	return &HTTPProvider{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: fetchTimeout},
	}, nil
}

// Fetch retrieves and decodes one snapshot.
func (p *HTTPProvider) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding response: %v", ErrFetchFailed, err)
	}
	return snap, nil
}

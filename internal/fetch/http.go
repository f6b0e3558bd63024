package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// HTTPFetcher downloads over HTTP(S) with one GET request.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A zero timeout leaves the request
// bounded only by its context.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: timeout,
		},
	}
}

// Fetch implements ingest.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, destPath string) (*ingest.FetchResult, error) {
	start := time.Now()
	defer f.client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, downloadError(url, fmt.Errorf("create request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, downloadError(url, err)
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode); err != nil {
		return nil, downloadError(url, fmt.Errorf("%w: %s", err, resp.Status))
	}

	n, err := writeAtomically(ctx, destPath, resp.Body)
	if err != nil {
		return nil, downloadError(url, err)
	}

	return &ingest.FetchResult{
		Path:        destPath,
		Bytes:       n,
		ContentType: resp.Header.Get("Content-Type"),
		Elapsed:     time.Since(start),
	}, nil
}

func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return ErrServerError
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}

var _ ingest.Fetcher = (*HTTPFetcher)(nil)

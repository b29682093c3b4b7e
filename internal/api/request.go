package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rickgao/wfm-tracker/internal/metrics"
)

// UpstreamError represents a failed call to the market API: either a non-2xx
// response or a transport failure (StatusCode 0).
type UpstreamError struct {
	StatusCode int
	Message    string
	Body       []byte
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("market api request failed: %v", e.Err)
	}
	return fmt.Sprintf("market api error %d: %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error should trigger a retry.
func (e *UpstreamError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == 429
}

// IsUpstream reports whether err came from the market API.
func IsUpstream(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr)
}

// doRequest waits for the rate limiter, then performs an HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Platform", c.platform)
	req.Header.Set("Language", c.language)

	waited, err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	metrics.ObserveRateLimitWait(waited)
	if waited > time.Millisecond {
		c.logger.Debug("rate limited request", "path", path, "waited", waited)
	}

	endpoint := endpointLabel(path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, 0)
		return nil, &UpstreamError{Message: "transport failure", Err: err}
	}
	defer resp.Body.Close()

	metrics.RecordUpstreamRequest(endpoint, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)+1))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, method, path, query)
		if err == nil {
			return body, nil
		}

		lastErr = err

		var upErr *UpstreamError
		if !errors.As(err, &upErr) || !upErr.IsRetryable() {
			return nil, err
		}
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// FetchJSON performs a GET request and decodes the JSON response into result.
func (c *Client) FetchJSON(ctx context.Context, path string, query url.Values, result any) error {
	body, err := c.doWithRetry(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// endpointLabel keeps metric cardinality bounded by dropping path parameters.
func endpointLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/orders/item/"):
		return "orders"
	case path == "/items":
		return "items"
	default:
		return "other"
	}
}

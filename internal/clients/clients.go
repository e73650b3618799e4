// Package clients provides HTTP clients for external APIs
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mission-control/internal/metrics"
)

// HTTPError is returned when the remote API answers with a non-success status
type HTTPError struct {
	Resource string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if body == "" {
		body = "Unknown error"
	}
	return fmt.Sprintf("%s request failed (%d): %s", e.Resource, e.Status, body)
}

// HTTPClient is a wrapper around http.Client with common configuration
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a new HTTP client with timeout
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request and returns the response body. The resource name
// labels errors and metrics.
func (c *HTTPClient) Get(ctx context.Context, resource, endpoint, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mission-control/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordGatewayRequest(endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordGatewayRequest(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s response unreadable: %w", resource, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Resource: resource, Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// GetJSON performs a GET request and decodes the JSON body into out
func (c *HTTPClient) GetJSON(ctx context.Context, resource, endpoint, url string, out interface{}) error {
	body, err := c.Get(ctx, resource, endpoint, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s response malformed: %w", resource, err)
	}
	return nil
}

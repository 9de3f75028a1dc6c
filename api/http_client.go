// api/http_client.go
package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient struct to hold base URL and HTTP client configuration
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPClient creates a new instance of HTTPClient with the given request timeout
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get issues a GET request for endpoint with the given query and returns the
// raw body of a 2xx response.
//
// A request that never produced a response fails with *TransportError; a
// non-2xx status fails with *RemoteError.
func (c *HTTPClient) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	target := c.BaseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &RemoteError{StatusCode: res.StatusCode, Status: res.Status}
	}

	return body, nil
}

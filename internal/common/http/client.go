// internal/common/http/client.go
package http

import (
	"net/http"
	"time"
)

// Client carries outbound push deliveries. It satisfies webpush.HTTPClient.
type Client struct {
	httpClient *http.Client
}

// NewClient bounds every request by timeout. maxConnsPerHost should match the
// dispatcher's concurrency so a batch aimed at one push service reuses
// connections instead of queueing behind them; 0 leaves it unbounded.
func NewClient(timeout time.Duration, maxConnsPerHost int) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = maxConnsPerHost
	if maxConnsPerHost > transport.MaxIdleConnsPerHost {
		transport.MaxIdleConnsPerHost = maxConnsPerHost
	}

	return &Client{httpClient: &http.Client{Timeout: timeout, Transport: transport}}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

func (c *Client) MaxConnsPerHost() int {
	return c.httpClient.Transport.(*http.Transport).MaxConnsPerHost
}

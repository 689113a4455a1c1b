package gateway

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps an http.Client with a token bucket shared by every
// caller of the gateway.
type RateLimitedClient struct {
	client      *http.Client
	rateLimiter *rate.Limiter
}

// NewRateLimitedClient allows requestsPerSecond with a burst of the same
// size (at least 1). requestsPerSecond <= 0 disables limiting.
func NewRateLimitedClient(requestsPerSecond float64, timeout time.Duration) *RateLimitedClient {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		if b := int(requestsPerSecond); b > 1 {
			burst = b
		}
	}
	return &RateLimitedClient{
		client:      &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

// Do waits for a token, then sends req. Waiting honours req's context.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

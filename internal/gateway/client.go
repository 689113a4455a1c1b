// Package gateway is the client side of the jobs API: listing, detail and
// daily summary. Every failure comes back as an error value (ErrNotFound or
// *RequestError); nothing is retried here.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// Client talks to the jobs API rooted at baseURL (e.g.
// http://localhost:8000/api/v1).
type Client struct {
	baseURL  string
	http     *RateLimitedClient
	cache    Cache
	cacheTTL time.Duration
}

// NewClient builds a client. A nil httpClient means 5 req/s with the default
// timeout.
func NewClient(baseURL string, httpClient *RateLimitedClient) *Client {
	if httpClient == nil {
		httpClient = NewRateLimitedClient(5, defaultTimeout)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// WithCache enables read-through caching of job details and summaries.
// Listings are never cached because they back live search.
func (c *Client) WithCache(cache Cache, ttl time.Duration) *Client {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// ListJobs fetches one page of jobs matching p.
func (c *Client) ListJobs(ctx context.Context, p query.Params) (*model.JobsPage, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	var page model.JobsPage
	if err := c.getJSON(ctx, "list jobs", "/jobs", p.Values(), false, &page); err != nil {
		return nil, err
	}
	if page.Jobs == nil {
		page.Jobs = []model.Job{}
	}
	return &page, nil
}

// GetJob fetches a single job. Unknown ids yield an error wrapping
// ErrNotFound.
func (c *Client) GetJob(ctx context.Context, id int64) (*model.Job, error) {
	if id <= 0 {
		return nil, fmt.Errorf("get job %d: %w", id, ErrNotFound)
	}
	var job model.Job
	path := "/jobs/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, "get job", path, nil, true, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetSummary fetches the backend's daily summary for q.
func (c *Client) GetSummary(ctx context.Context, q query.SummaryQuery) (*model.SummaryResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	var resp model.SummaryResponse
	if err := c.getJSON(ctx, "get summary", "/summary/daily", q.Values(), true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, cacheable bool, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	useCache := cacheable && c.cache != nil
	if useCache {
		if body, ok, err := c.cache.Get(ctx, reqURL); err != nil {
			log.Warn().Err(err).Str("url", reqURL).Msg("[gateway] cache read failed")
		} else if ok && json.Unmarshal(body, out) == nil {
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("http GET: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && op == "get job":
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", truncate(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("json unmarshal: %w", err)}
	}

	if useCache {
		if err := c.cache.Set(ctx, reqURL, body, c.cacheTTL); err != nil {
			log.Warn().Err(err).Str("url", reqURL).Msg("[gateway] cache write failed")
		}
	}
	return nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "…"
	}
	return s
}

// Package controller mediates between live listing input (search text,
// remote-only toggle, page) and the jobs API.
//
// Filter edits are coalesced: a fetch is issued only after the input has
// been quiet for the debounce interval. Page changes and retries fetch at
// once. Every fetch carries a sequence number; a response that is not for
// the latest sequence is dropped, so a slow old response can never replace
// fresher data.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobmate/dashboard-service/internal/gateway"
	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
)

// DefaultDebounce is the quiet period before a filter change is fetched.
const DefaultDebounce = 500 * time.Millisecond

// Fetcher is the listing half of the gateway.
type Fetcher interface {
	ListJobs(ctx context.Context, p query.Params) (*model.JobsPage, error)
}

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it via
// RealAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc adapts time.AfterFunc.
func RealAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithAfterFunc replaces the timer source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// WithParams sets the initial parameters.
func WithParams(p query.Params) Option {
	return func(c *Controller) { c.state.Params = p }
}

// Controller owns one listing session. All methods are safe for concurrent
// use. Listeners must not call back into the Controller synchronously.
type Controller struct {
	fetcher   Fetcher
	debounce  time.Duration
	afterFunc AfterFunc

	base       context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	state    State
	seq      uint64
	timer    Timer
	timerGen uint64
	cancel   context.CancelFunc
	closed   bool
	wg       sync.WaitGroup

	notifyMu  sync.Mutex
	delivered uint64
	listeners []func(State)
}

// New returns an idle controller. Call Start for the first fetch.
func New(f Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:   f,
		debounce:  DefaultDebounce,
		afterFunc: RealAfterFunc,
		state:     State{Params: query.Default()},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base, c.cancelBase = context.WithCancel(context.Background())
	return c
}

// OnChange registers fn to receive every state change, in order.
func (c *Controller) OnChange(fn func(State)) {
	c.notifyMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.notifyMu.Unlock()
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start fetches the current parameters immediately.
func (c *Controller) Start() { c.fetchNow() }

// Retry re-fetches the current parameters immediately.
func (c *Controller) Retry() { c.fetchNow() }

// SetSearch changes the search text, resets the page to 1 and restarts the
// quiet period. Setting the same text is a no-op.
func (c *Controller) SetSearch(search string) {
	c.update(func(p query.Params) query.Params { return p.WithSearch(search) })
}

// SetRemoteOnly toggles the remote filter like SetSearch.
func (c *Controller) SetRemoteOnly(remote bool) {
	c.update(func(p query.Params) query.Params { return p.WithRemoteOnly(remote) })
}

// SetPage moves to page n and fetches without waiting.
func (c *Controller) SetPage(n int) error {
	if n < 1 {
		return fmt.Errorf("page must be >= 1, got %d", n)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.state.Params = c.state.Params.WithPage(n)
	s := c.issueLocked()
	c.mu.Unlock()
	c.notify(s)
	return nil
}

// Close stops the timer, cancels any in-flight fetch and waits for it to
// return. No notifications are sent afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.cancelBase()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) update(change func(query.Params) query.Params) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	next := change(c.state.Params)
	if next == c.state.Params {
		c.mu.Unlock()
		return
	}
	c.state.Params = next
	c.stopTimerLocked()
	gen := c.timerGen
	c.timer = c.afterFunc(c.debounce, func() { c.fire(gen) })
	c.state.Status = StatusPending
	s := c.bumpLocked()
	c.mu.Unlock()
	c.notify(s)
}

// fire runs when a quiet period ends. A timer that lost a race with Stop
// carries an old generation and does nothing.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	s := c.issueLocked()
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) fetchNow() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	s := c.issueLocked()
	c.mu.Unlock()
	c.notify(s)
}

// issueLocked cancels any pending timer and in-flight fetch, then starts a
// fetch for the current parameters under a new sequence number.
func (c *Controller) issueLocked() State {
	c.stopTimerLocked()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	seq, p := c.seq, c.state.Params
	c.wg.Add(1)
	go c.run(ctx, cancel, seq, p)

	c.state.Status = StatusLoading
	c.state.Seq = seq
	return c.bumpLocked()
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, seq uint64, p query.Params) {
	defer c.wg.Done()
	defer cancel()

	page, err := c.fetcher.ListJobs(ctx, p)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	if err != nil {
		// keep the last good page on screen
		c.state.Status = StatusError
		c.state.Err = err
		c.state.Retryable = gateway.IsRetryable(err)
	} else {
		c.state.Data = page
		c.state.DataParams = p
		c.state.Err = nil
		c.state.Retryable = false
		c.state.Status = StatusReady
		if page == nil || len(page.Jobs) == 0 {
			c.state.Status = StatusEmpty
		}
	}
	s := c.bumpLocked()
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) stopTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) bumpLocked() State {
	c.state.Version++
	return c.state
}

// notify delivers s unless a newer snapshot was already delivered.
func (c *Controller) notify(s State) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if s.Version <= c.delivered {
		return
	}
	c.delivered = s.Version
	for _, fn := range c.listeners {
		fn(s)
	}
}

// Package dashboard serves the job dashboard: the summary page, the paged
// listing, job details and a live search channel. Every page is rendered
// as HTML for browsers and as a JSON view model for API clients.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"jobmate/dashboard-service/internal/aggregate"
	"jobmate/dashboard-service/internal/controller"
	"jobmate/dashboard-service/internal/gateway"
	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
	"jobmate/dashboard-service/internal/snapshot"
	"jobmate/dashboard-service/internal/theme"
)

// JobsAPI is the part of the gateway the dashboard reads from.
type JobsAPI interface {
	ListJobs(ctx context.Context, p query.Params) (*model.JobsPage, error)
	GetJob(ctx context.Context, id int64) (*model.Job, error)
	GetSummary(ctx context.Context, q query.SummaryQuery) (*model.SummaryResponse, error)
}

// SnapshotReader supplies the fallback summary.
type SnapshotReader interface {
	Latest(ctx context.Context) (*snapshot.Snapshot, error)
}

// Options tunes the handler.
type Options struct {
	Version        string
	SummaryDays    int
	Debounce       time.Duration
	Aggregate      aggregate.Options
	Location       *time.Location // for dates; time.Local when nil
	AllowedOrigins []string
}

// Handler holds the dashboard dependencies.
type Handler struct {
	api       JobsAPI
	snapshots SnapshotReader
	themes    *theme.Provider
	opts      Options
	upgrader  websocket.Upgrader
}

// NewHandler wires a Handler. snapshots may be nil.
func NewHandler(api JobsAPI, snapshots SnapshotReader, themes *theme.Provider, opts Options) *Handler {
	if opts.SummaryDays <= 0 {
		opts.SummaryDays = query.DefaultSummaryDays
	}
	if opts.Debounce <= 0 {
		opts.Debounce = controller.DefaultDebounce
	}
	if opts.Aggregate == (aggregate.Options{}) {
		opts.Aggregate = aggregate.DefaultOptions()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	opts.Aggregate.Trend.Location = opts.Location

	h := &Handler{api: api, snapshots: snapshots, themes: themes, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Register mounts every dashboard route on r. Unknown paths redirect to /.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/", h.Summary)
	r.GET("/jobs", h.Jobs)
	r.GET("/jobs/live", h.Live)
	r.GET("/jobs/:id", h.Job)
	r.GET("/jobs/:id/apply", h.Apply)
	r.POST("/theme/toggle", h.ToggleTheme)

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dashboard-service",
		"version": h.opts.Version,
	})
}

// Summary renders GET /. When the live summary cannot be fetched the last
// stored snapshot is shown together with the error.
func (h *Handler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	q := query.DefaultSummary()
	q.Days = h.opts.SummaryDays
	if d, err := strconv.Atoi(c.Query("days")); err == nil && d >= 1 && d <= query.MaxSummaryDays {
		q.Days = d
	}

	var view SummaryView
	resp, err := h.api.GetSummary(ctx, q)
	if err == nil {
		v := aggregate.Summarize(resp, h.opts.Aggregate)
		view.Summary, view.Source = &v, "live"
	} else {
		log.Warn().Err(err).Int("days", q.Days).Msg("[dashboard] summary fetch failed")
		view.Error = newErrorView(err)
		if snap := h.fallback(ctx, q.Days); snap != nil {
			view.Summary, view.Source = &snap.View, "snapshot"
			view.SnapshotAt = &snap.TakenAt
		}
	}

	if view.Summary != nil && view.Summary.TotalJobs == 0 {
		view.Empty = true
		view.Guidance = "No jobs were posted in this period yet."
	}

	status := http.StatusOK
	if view.Summary == nil {
		status = http.StatusBadGateway
	}
	h.render(c, status, "summary.html", "Dashboard", view)
}

func (h *Handler) fallback(ctx context.Context, days int) *snapshot.Snapshot {
	if h.snapshots == nil {
		return nil
	}
	snap, err := h.snapshots.Latest(ctx)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNoSnapshot) {
			log.Warn().Err(err).Msg("[dashboard] snapshot lookup failed")
		}
		return nil
	}
	if snap.Days != days {
		return nil
	}
	return snap
}

// Jobs renders GET /jobs?search=&remote=&page=.
func (h *Handler) Jobs(c *gin.Context) {
	p := query.FromValues(c.Request.URL.Query())

	page, err := h.api.ListJobs(c.Request.Context(), p)
	if err != nil {
		log.Warn().Err(err).Str("filter", p.FilterKey()).Int("page", p.Page).Msg("[dashboard] listing fetch failed")
		view := newListingView(p, nil)
		view.Error = newErrorView(err)
		h.render(c, http.StatusBadGateway, "jobs.html", "Jobs", view)
		return
	}
	h.render(c, http.StatusOK, "jobs.html", "Jobs", newListingView(p, page))
}

// Job renders GET /jobs/:id.
func (h *Handler) Job(c *gin.Context) {
	job, status, errView := h.lookup(c)
	if errView != nil {
		h.render(c, status, "job.html", "Job not available", DetailView{Error: errView})
		return
	}
	h.render(c, http.StatusOK, "job.html", job.Title, newDetailView(job, h.opts.Location))
}

// Apply redirects to the original posting when its URL is safe to follow.
func (h *Handler) Apply(c *gin.Context) {
	job, status, errView := h.lookup(c)
	if errView != nil {
		h.render(c, status, "job.html", "Job not available", DetailView{Error: errView})
		return
	}
	if !safeURL(job.URL) {
		log.Warn().Int64("id", job.ID).Str("url", job.URL).Msg("[dashboard] refusing unsafe apply URL")
		h.render(c, http.StatusBadRequest, "job.html", job.Title, DetailView{
			Job:   job,
			Error: &ErrorView{Message: "This job has no valid application link."},
		})
		return
	}
	c.Redirect(http.StatusFound, job.URL)
}

// lookup resolves :id. A malformed id is treated like an unknown one.
func (h *Handler) lookup(c *gin.Context) (*model.Job, int, *ErrorView) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, http.StatusNotFound, newErrorView(gateway.ErrNotFound)
	}
	job, err := h.api.GetJob(c.Request.Context(), id)
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return nil, http.StatusNotFound, newErrorView(err)
	case err != nil:
		log.Warn().Err(err).Int64("id", id).Msg("[dashboard] job fetch failed")
		return nil, http.StatusBadGateway, newErrorView(err)
	}
	return job, http.StatusOK, nil
}

// ToggleTheme flips the session's mode and sends the browser back where it
// came from.
func (h *Handler) ToggleTheme(c *gin.Context) {
	mode, err := h.themes.Toggle(c.Request.Context(), sessionID(c))
	if err != nil {
		log.Warn().Err(err).Msg("[dashboard] theme toggle failed")
	}
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.JSON(http.StatusOK, gin.H{"mode": mode})
		return
	}
	c.Redirect(http.StatusSeeOther, backTarget(c.Request))
}

// backTarget returns the Referer path when it points at this host.
func backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || ref.Path == "" {
		return "/"
	}
	return ref.RequestURI()
}

type page struct {
	Title   string
	Path    string
	Version string
	Theme   theme.Palette
	Body    any
}

func (h *Handler) render(c *gin.Context, code int, tmpl, title string, data any) {
	mode, err := h.themes.Mode(c.Request.Context(), sessionID(c))
	if err != nil {
		log.Warn().Err(err).Msg("[dashboard] theme lookup failed")
	}
	c.Negotiate(code, gin.Negotiate{
		Offered:  []string{gin.MIMEHTML, gin.MIMEJSON},
		HTMLName: tmpl,
		HTMLData: page{
			Title:   title,
			Path:    c.Request.URL.Path,
			Version: h.opts.Version,
			Theme:   theme.PaletteFor(mode),
			Body:    data,
		},
		JSONData: data,
	})
}

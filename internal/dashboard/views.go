package dashboard

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobmate/dashboard-service/internal/aggregate"
	"jobmate/dashboard-service/internal/gateway"
	"jobmate/dashboard-service/internal/model"
	"jobmate/dashboard-service/internal/query"
)

const (
	cardTags      = 3
	excerptLength = 180

	emptyGuidance = "No jobs match these filters. Try adjusting your search or turning off the remote-only filter."
)

// ErrorView is the user-facing side of a failed request.
type ErrorView struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	NotFound  bool   `json:"not_found,omitempty"`
}

// SummaryView backs GET /.
type SummaryView struct {
	Summary    *aggregate.View `json:"summary"`
	Source     string          `json:"source"` // "live" or "snapshot"
	SnapshotAt *time.Time      `json:"snapshot_at,omitempty"`
	Empty      bool            `json:"empty"`
	Guidance   string          `json:"guidance,omitempty"`
	Error      *ErrorView      `json:"error,omitempty"`
}

// JobCard is one listing entry.
type JobCard struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	WorkModality string   `json:"work_modality"`
	Salary       string   `json:"salary,omitempty"`
	Tags         []string `json:"tags"`
	MoreTags     int      `json:"more_tags"`
	Excerpt      string   `json:"excerpt,omitempty"`
	URL          string   `json:"url"`
}

// ListingView backs GET /jobs and the live channel.
type ListingView struct {
	Search     string     `json:"search"`
	RemoteOnly bool       `json:"remote_only"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
	PrevPage   int        `json:"prev_page,omitempty"`
	NextPage   int        `json:"next_page,omitempty"`
	Jobs       []JobCard  `json:"jobs"`
	Empty      bool       `json:"empty"`
	Guidance   string     `json:"guidance,omitempty"`
	Error      *ErrorView `json:"error,omitempty"`
}

// DetailView backs GET /jobs/:id.
type DetailView struct {
	Job         *model.Job `json:"job,omitempty"`
	Salary      string     `json:"salary,omitempty"`
	PostedOn    string     `json:"posted_on,omitempty"`
	Description string     `json:"description,omitempty"`
	ApplyURL    string     `json:"apply_url,omitempty"`
	Error       *ErrorView `json:"error,omitempty"`
}

func newErrorView(err error) *ErrorView {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrNotFound):
		return &ErrorView{Message: "This job could not be found. It may have been removed.", NotFound: true}
	case gateway.IsRetryable(err):
		return &ErrorView{Message: "Could not reach the jobs service. Please try again.", Retryable: true}
	default:
		return &ErrorView{Message: "The jobs service returned an unexpected response."}
	}
}

func newListingView(p query.Params, page *model.JobsPage) ListingView {
	v := ListingView{
		Search:     p.Search,
		RemoteOnly: p.RemoteOnly,
		Page:       p.Page,
		Jobs:       []JobCard{},
	}
	if page == nil {
		return v
	}
	v.Page = page.Page
	if v.Page < 1 {
		v.Page = p.Page
	}
	v.Total = page.Total
	v.TotalPages = page.TotalPages()
	if v.Page > 1 {
		v.PrevPage = v.Page - 1
	}
	if v.Page < v.TotalPages {
		v.NextPage = v.Page + 1
	}
	for _, j := range page.Jobs {
		v.Jobs = append(v.Jobs, newJobCard(j))
	}
	if len(v.Jobs) == 0 {
		v.Empty = true
		v.Guidance = emptyGuidance
	}
	return v
}

func newJobCard(j model.Job) JobCard {
	tags, more := aggregate.Visible(j.Tags, cardTags)
	return JobCard{
		ID:           j.ID,
		Title:        j.Title,
		Company:      j.Company,
		Location:     model.StringOr(j.Location, ""),
		WorkModality: j.WorkModality,
		Salary:       salaryRange(j.SalaryMin, j.SalaryMax),
		Tags:         tags,
		MoreTags:     more,
		Excerpt:      Excerpt(model.StringOr(j.Description, ""), excerptLength),
		URL:          j.URL,
	}
}

func newDetailView(j *model.Job, loc *time.Location) DetailView {
	v := DetailView{
		Job:         j,
		Salary:      salaryRange(j.SalaryMin, j.SalaryMax),
		Description: PlainText(model.StringOr(j.Description, "")),
	}
	if v.Description == "" {
		v.Description = "No description available."
	}
	if t, err := j.PostedAt(loc); err == nil {
		v.PostedOn = t.Format("January 2, 2006")
	}
	if safeURL(j.URL) {
		v.ApplyURL = j.URL
	}
	return v
}

// salaryRange renders "$80,000 - $?" style ranges; "" when both ends are
// missing.
func salaryRange(lo, hi *float64) string {
	if lo == nil && hi == nil {
		return ""
	}
	return "$" + money(lo) + " - $" + money(hi)
}

func money(v *float64) string {
	if v == nil || *v == 0 {
		return "?"
	}
	s := strconv.FormatInt(int64(math.Round(*v)), 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// safeURL accepts only absolute http(s) URLs.
func safeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

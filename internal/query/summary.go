package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultSummaryDays = 7
	MaxSummaryDays     = 30
)

// SummaryQuery selects the lookback window for GET /summary/daily.
type SummaryQuery struct {
	Days       int
	RemoteOnly bool
	Modality   string // optional work_modality substring, e.g. "hybrid"
}

// DefaultSummary is the dashboard's seven-day window.
func DefaultSummary() SummaryQuery {
	return SummaryQuery{Days: DefaultSummaryDays}
}

// Validate checks the window is within 1..30 days.
func (q SummaryQuery) Validate() error {
	if q.Days < 1 || q.Days > MaxSummaryDays {
		return fmt.Errorf("days must be between 1 and %d, got %d", MaxSummaryDays, q.Days)
	}
	return nil
}

// Values encodes q. The backend filters modality through its "location"
// parameter.
func (q SummaryQuery) Values() url.Values {
	v := url.Values{}
	v.Set("days", strconv.Itoa(q.Days))
	if q.RemoteOnly {
		v.Set("remote_only", "true")
	}
	if m := strings.TrimSpace(q.Modality); m != "" {
		v.Set("location", m)
	}
	return v
}

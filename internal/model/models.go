// Package model defines the job listing shapes consumed from the jobs API.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Job is one posting as returned by GET /jobs and GET /jobs/{id}.
// Records are read-only copies owned by the backend; every fetch produces
// a fresh, independent set.
type Job struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     *string  `json:"location,omitempty"`
	WorkModality string   `json:"work_modality"` // open category: "Remote", "Hybrid", ...
	SalaryMin    *float64 `json:"salary_min,omitempty"`
	SalaryMax    *float64 `json:"salary_max,omitempty"`
	Description  *string  `json:"description,omitempty"`
	URL          string   `json:"url"`
	Remote       *bool    `json:"remote,omitempty"`
	ContractType *string  `json:"contract_type,omitempty"`
	Tags         []string `json:"tags"`
	CreatedAt    string   `json:"created_at"`
	Source       *string  `json:"source,omitempty"`
}

// layouts accepted for created_at. The backend emits Python isoformat()
// strings, which carry no zone unless the column is tz-aware.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// PostedAt parses CreatedAt. Zone-less values are read in loc; values with
// an explicit offset are converted to loc.
func (j Job) PostedAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw := strings.TrimSpace(j.CreatedAt)
	if raw == "" {
		return time.Time{}, fmt.Errorf("job %d: empty created_at", j.ID)
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range layouts[1:] {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("job %d: unparseable created_at %q", j.ID, raw)
}

// StringOr returns *s, or fallback when s is nil or blank.
func StringOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// JobsPage mirrors the GET /jobs response.
type JobsPage struct {
	Jobs     []Job `json:"jobs"`
	Total    int   `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// TotalPages returns ceil(Total / PageSize).
func (p *JobsPage) TotalPages() int {
	if p == nil || p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// SummaryResponse mirrors GET /summary/daily.
type SummaryResponse struct {
	Summary DailySummary `json:"summary"`
	Jobs    []Job        `json:"jobs"`
}

// DailySummary holds the aggregates pre-computed by the backend.
type DailySummary struct {
	TotalJobs      int            `json:"total_jobs"`
	PeriodDays     int            `json:"period_days"`
	FiltersApplied FiltersApplied `json:"filters_applied"`
	TopCompanies   []string       `json:"top_companies"`
	WorkModalities []string       `json:"work_modalities"`
	TopSkills      []SkillCount   `json:"top_skills"`
}

// FiltersApplied echoes the filters the backend used for a summary.
type FiltersApplied struct {
	LocationFilter *string  `json:"location_filter"`
	Tags           []string `json:"tags"`
	Limit          int      `json:"limit"`
}

// SkillCount is one entry of top_skills. Count is 0 when the backend only
// sent the skill name.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// UnmarshalJSON accepts both {"skill":"go","count":3} and "go".
func (s *SkillCount) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = SkillCount{Skill: name}
		return nil
	}
	type plain SkillCount
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("top_skills entry: %w", err)
	}
	*s = SkillCount(p)
	return nil
}

// HasCounts reports whether the backend supplied counts for its top skills.
func (d DailySummary) HasCounts() bool {
	for _, s := range d.TopSkills {
		if s.Count > 0 {
			return true
		}
	}
	return false
}

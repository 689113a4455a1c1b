package aggregate

import "jobmate/dashboard-service/internal/model"

// Where a statistic in a View came from.
const (
	SourceBackend = "backend"
	SourceLocal   = "local"
)

// Options sizes the summary view.
type Options struct {
	TopCompanies int
	TopSkills    int
	Tags         TagPolicy
	Trend        TrendOptions
}

// DefaultOptions matches the dashboard: top 10 companies, top 20 skills over
// all tags, chronological trend.
func DefaultOptions() Options {
	return Options{
		TopCompanies: 10,
		TopSkills:    20,
		Tags:         AllTags,
		Trend:        TrendOptions{Chronological: true},
	}
}

// View is the summary view model rendered on the dashboard.
type View struct {
	TotalJobs    int     `json:"total_jobs"`
	PeriodDays   int     `json:"period_days"`
	Companies    Ranking `json:"top_companies"`
	Modalities   Ranking `json:"work_modalities"`
	Skills       Ranking `json:"top_skills"`
	SkillsSource string  `json:"skills_source"`
	Trend        Series  `json:"trend"`
}

// Summarize builds the view for a summary response. Each statistic has one
// source: the backend value when it carries counts, otherwise a local
// computation over resp.Jobs. The backend's company and modality lists are
// distinct names without counts, so those are always computed locally.
func Summarize(resp *model.SummaryResponse, opts Options) View {
	if resp == nil {
		return View{}
	}
	v := View{
		TotalJobs:  resp.Summary.TotalJobs,
		PeriodDays: resp.Summary.PeriodDays,
		Companies:  Companies(resp.Jobs, opts.TopCompanies),
		Modalities: Modalities(resp.Jobs, 0),
		Trend:      Trend(resp.Jobs, opts.Trend),
	}
	if v.TotalJobs == 0 {
		v.TotalJobs = len(resp.Jobs)
	}

	if resp.Summary.HasCounts() {
		v.Skills = backendSkills(resp.Summary.TopSkills, opts.TopSkills)
		v.SkillsSource = SourceBackend
	} else {
		v.Skills = Tags(resp.Jobs, opts.Tags, opts.TopSkills)
		v.SkillsSource = SourceLocal
	}
	return v
}

// backendSkills re-normalizes backend skills so both sources produce the
// same key space.
func backendSkills(skills []model.SkillCount, topN int) Ranking {
	c := newCounter()
	for _, s := range skills {
		t, ok := NormalizeTag(s.Skill)
		if !ok || s.Count <= 0 {
			continue
		}
		c.addN(t, s.Count)
	}
	return c.rank(topN)
}

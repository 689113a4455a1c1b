package aggregate

import (
	"strings"

	"jobmate/dashboard-service/internal/model"
)

// NormalizeTag trims and lower-cases a tag. Tags of length <= 1 after
// trimming are noise (stray punctuation, single letters) and rejected.
func NormalizeTag(tag string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(tag))
	if len([]rune(t)) <= 1 {
		return "", false
	}
	return t, true
}

// NormalizeTags normalizes a tag list, dropping rejected entries.
// Order and duplicates are preserved.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t, ok := NormalizeTag(tag); ok {
			out = append(out, t)
		}
	}
	return out
}

// TagPolicy decides which of a record's tags are sampled.
type TagPolicy struct {
	PerJob int // only the first PerJob raw tags of each record; 0 = all
}

// AllTags samples every tag of every record.
var AllTags = TagPolicy{}

func (p TagPolicy) sample(tags []string) []string {
	if p.PerJob > 0 && len(tags) > p.PerJob {
		return tags[:p.PerJob]
	}
	return tags
}

// Tags ranks normalized tags across jobs under policy.
func Tags(jobs []model.Job, policy TagPolicy, topN int) Ranking {
	c := newCounter()
	for _, j := range jobs {
		for _, tag := range policy.sample(j.Tags) {
			if t, ok := NormalizeTag(tag); ok {
				c.add(t)
			}
		}
	}
	return c.rank(topN)
}

// Visible splits tags for a listing card: the first n, and how many more.
func Visible(tags []string, n int) ([]string, int) {
	if n <= 0 || len(tags) <= n {
		return tags, 0
	}
	return tags[:n], len(tags) - n
}

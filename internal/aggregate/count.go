// Package aggregate turns a set of job records into ranked frequency tables
// and a posting-date series. Every function is pure; a bad field on one
// record only affects the statistic that reads it.
package aggregate

import (
	"sort"
	"strings"

	"jobmate/dashboard-service/internal/model"
)

// NotSpecified is the bucket for records with an empty key.
const NotSpecified = "Not specified"

// Count is one (key, count) pair.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Ranking is a frequency table sorted by count, highest first.
type Ranking struct {
	Entries []Count `json:"entries"`
	Dropped int     `json:"dropped"` // distinct keys cut by topN, for "+N more"
	Total   int     `json:"total"`   // sum of counts before truncation
}

// KeyFunc extracts the grouping key from a record.
type KeyFunc func(model.Job) string

// CountBy counts every record under keyFn(record), putting blank keys into
// NotSpecified. Equal counts keep first-seen order. topN <= 0 keeps all keys.
func CountBy(jobs []model.Job, keyFn KeyFunc, topN int) Ranking {
	c := newCounter()
	for _, j := range jobs {
		key := keyFn(j)
		if strings.TrimSpace(key) == "" {
			key = NotSpecified
		}
		c.add(key)
	}
	return c.rank(topN)
}

// Companies ranks records by company.
func Companies(jobs []model.Job, topN int) Ranking {
	return CountBy(jobs, func(j model.Job) string { return j.Company }, topN)
}

// Modalities ranks records by work modality. Modality is an open string:
// "Remote" and "remote" are different buckets.
func Modalities(jobs []model.Job, topN int) Ranking {
	return CountBy(jobs, func(j model.Job) string { return j.WorkModality }, topN)
}

// counter accumulates counts while remembering insertion order.
type counter struct {
	index  map[string]int
	counts []Count
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) { c.addN(key, 1) }

func (c *counter) addN(key string, n int) {
	if i, ok := c.index[key]; ok {
		c.counts[i].Count += n
		return
	}
	c.index[key] = len(c.counts)
	c.counts = append(c.counts, Count{Key: key, Count: n})
}

func (c *counter) rank(topN int) Ranking {
	entries := make([]Count, len(c.counts))
	copy(entries, c.counts)
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Count > entries[b].Count
	})

	total := 0
	for _, e := range entries {
		total += e.Count
	}

	r := Ranking{Entries: entries, Total: total}
	if topN > 0 && len(entries) > topN {
		r.Dropped = len(entries) - topN
		r.Entries = entries[:topN]
	}
	return r
}

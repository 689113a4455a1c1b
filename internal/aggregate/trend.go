package aggregate

import (
	"sort"
	"time"

	"jobmate/dashboard-service/internal/model"
)

// TrendLabel is the bucket label layout, e.g. "Jan 21". The year is not
// part of the label, so the same day of different years shares a bucket.
const TrendLabel = "Jan 2"

// Point is one day bucket of the posting trend.
type Point struct {
	Label string    `json:"date"`
	Count int       `json:"count"`
	First time.Time `json:"-"` // earliest posting seen in the bucket
}

// Series is the posting trend plus the number of records left out.
type Series struct {
	Points  []Point `json:"points"`
	Skipped int     `json:"skipped"` // records whose created_at did not parse
}

// TrendOptions controls bucketing.
type TrendOptions struct {
	Location *time.Location // day boundaries; nil means time.Local
	// Chronological orders buckets by date. When false, buckets keep the
	// order in which the input first reached them.
	Chronological bool
}

// Trend counts postings per calendar day.
func Trend(jobs []model.Job, opts TrendOptions) Series {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var s Series
	index := make(map[string]int)
	for _, j := range jobs {
		t, err := j.PostedAt(loc)
		if err != nil {
			s.Skipped++
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		label := day.Format(TrendLabel)
		if i, ok := index[label]; ok {
			s.Points[i].Count++
			if day.Before(s.Points[i].First) {
				s.Points[i].First = day
			}
			continue
		}
		index[label] = len(s.Points)
		s.Points = append(s.Points, Point{Label: label, Count: 1, First: day})
	}

	if opts.Chronological {
		sort.SliceStable(s.Points, func(a, b int) bool {
			return s.Points[a].First.Before(s.Points[b].First)
		})
	}
	return s
}

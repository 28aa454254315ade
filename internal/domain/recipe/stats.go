package recipe

import (
	"sort"
	"time"
)

// DownloadStats summarises downloads for the admin dashboard.
type DownloadStats struct {
	Total     int            `json:"total"`
	Today     int            `json:"today"`
	ThisWeek  int            `json:"this_week"`
	ThisMonth int            `json:"this_month"`
	BySource  map[string]int `json:"by_source"`
}

// DownloadStamp is the slice of a Download needed for statistics.
type DownloadStamp struct {
	DownloadedAt time.Time
	Source       string
}

// ComputeDownloadStats buckets downloads relative to local midnight of now.
// Today counts downloads since midnight; the week and month windows reach 7 and 30 days
// before that midnight.
// PRE: now carries the location that defines "local midnight"
// POST: Total == len(stamps); Today <= ThisWeek <= ThisMonth <= Total
func ComputeDownloadStats(stamps []DownloadStamp, now time.Time) DownloadStats {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := midnight.AddDate(0, 0, -7)
	monthAgo := midnight.AddDate(0, 0, -30)

	stats := DownloadStats{Total: len(stamps), BySource: make(map[string]int)}
	for _, s := range stamps {
		if !s.DownloadedAt.Before(midnight) {
			stats.Today++
		}
		if !s.DownloadedAt.Before(weekAgo) {
			stats.ThisWeek++
		}
		if !s.DownloadedAt.Before(monthAgo) {
			stats.ThisMonth++
		}
		stats.BySource[s.Source]++
	}
	return stats
}

// SourceCount is one row of the by-source breakdown.
type SourceCount struct {
	Source string
	Count  int
}

// SortedSources returns BySource ordered by count (desc), then name.
func (s DownloadStats) SortedSources() []SourceCount {
	out := make([]SourceCount, 0, len(s.BySource))
	for src, n := range s.BySource {
		out = append(out, SourceCount{Source: src, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}

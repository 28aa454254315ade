// Package perf samples request and query latency into a fixed-size ring
// and summarises it on demand for the admin performance endpoint.
package perf

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
)

// DefaultCapacity is the ring size used when NewCollector gets a non-positive one.
const DefaultCapacity = 10000

// Kind separates HTTP requests from database statements.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

func (k Kind) String() string {
	if k == KindQuery {
		return "query"
	}
	return "request"
}

// Sample is one timed operation.
type Sample struct {
	Kind     Kind
	Label    string // route label for requests, shortened statement for queries
	Status   int    // HTTP status; zero for queries
	Duration time.Duration
	At       time.Time
	Failed   bool // query error; requests fail on 5xx
}

func (s Sample) failed() bool {
	if s.Kind == KindRequest {
		return s.Status >= 500
	}
	return s.Failed
}

// Collector keeps the most recent samples. Observe is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	ring  []Sample
	next  int
	total atomic.Int64
}

func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collector{ring: make([]Sample, capacity)}
}

// Observe stores s, overwriting the oldest sample once the ring is full.
func (c *Collector) Observe(s Sample) {
	c.mu.Lock()
	c.ring[c.next] = s
	c.next = (c.next + 1) % len(c.ring)
	c.mu.Unlock()
	c.total.Add(1)
}

// Total counts every sample ever observed, including overwritten ones.
func (c *Collector) Total() int64 {
	return c.total.Load()
}

// LabelStat aggregates the samples sharing one label.
type LabelStat struct {
	Label    string        `json:"label"`
	Count    int           `json:"count"`
	Failures int           `json:"failures"`
	Mean     time.Duration `json:"mean_ns"`
	Max      time.Duration `json:"max_ns"`
	sum      time.Duration
}

// Summary describes one kind of sample inside the report window.
type Summary struct {
	Count    int           `json:"count"`
	Failures int           `json:"failures"`
	P50      time.Duration `json:"p50_ns"`
	P95      time.Duration `json:"p95_ns"`
	P99      time.Duration `json:"p99_ns"`
	Max      time.Duration `json:"max_ns"`
	Slowest  []LabelStat   `json:"slowest"`
}

// FailureRate is the failed share of Count in percent.
func (s Summary) FailureRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Failures) * 100 / float64(s.Count)
}

// Report is the aggregate view served to admins.
type Report struct {
	Since    time.Time `json:"since"`
	Total    int64     `json:"total_observed"`
	Requests Summary   `json:"requests"`
	Queries  Summary   `json:"queries"`
}

// Report summarises samples taken at or after since. top bounds the slowest
// labels per kind; zero keeps them all. It copies the ring, so callers should
// keep it off the request hot path.
func (c *Collector) Report(since time.Time, top int) Report {
	c.mu.Lock()
	samples := slices.Clone(c.ring)
	c.mu.Unlock()

	var reqs, queries []Sample
	for _, s := range samples {
		if s.At.IsZero() || s.At.Before(since) {
			continue
		}
		if s.Kind == KindQuery {
			queries = append(queries, s)
		} else {
			reqs = append(reqs, s)
		}
	}
	return Report{
		Since:    since,
		Total:    c.Total(),
		Requests: summarise(reqs, top),
		Queries:  summarise(queries, top),
	}
}

func summarise(samples []Sample, top int) Summary {
	sum := Summary{Count: len(samples)}
	if len(samples) == 0 {
		return sum
	}
	durations := make([]time.Duration, len(samples))
	byLabel := map[string]*LabelStat{}
	for i, s := range samples {
		durations[i] = s.Duration
		st := byLabel[s.Label]
		if st == nil {
			st = &LabelStat{Label: s.Label}
			byLabel[s.Label] = st
		}
		st.Count++
		st.sum += s.Duration
		st.Max = max(st.Max, s.Duration)
		if s.failed() {
			st.Failures++
			sum.Failures++
		}
	}
	slices.Sort(durations)
	sum.P50 = nearestRank(durations, 50)
	sum.P95 = nearestRank(durations, 95)
	sum.P99 = nearestRank(durations, 99)
	sum.Max = durations[len(durations)-1]

	for _, st := range byLabel {
		st.Mean = st.sum / time.Duration(st.Count)
		sum.Slowest = append(sum.Slowest, *st)
	}
	slices.SortFunc(sum.Slowest, func(a, b LabelStat) int {
		return cmp.Or(cmp.Compare(b.Mean, a.Mean), strings.Compare(a.Label, b.Label))
	})
	if top > 0 && len(sum.Slowest) > top {
		sum.Slowest = sum.Slowest[:top]
	}
	return sum
}

// nearestRank returns the p-th percentile of a sorted, non-empty slice.
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	return sorted[max(rank-1, 0)]
}

// RouteLabel groups request paths for aggregation: path segments that look
// like identifiers or tokens collapse to "{id}" so per-entity URLs share a row.
func RouteLabel(method, path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if looksLikeID(seg) {
			segs[i] = "{id}"
		}
	}
	return method + " " + strings.Join(segs, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) < 8 {
		return false
	}
	digits := 0
	for _, r := range seg {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r), r == '-', r == '_':
		default:
			return false
		}
	}
	return digits > 0
}

package client

import (
	"sort"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
)

// statsWindow is the number of recent requests averaged per resource.
const statsWindow = 10

// Stats keeps moving request latencies per resource.
type Stats struct {
	sync.Mutex
	latency  map[string]*movingaverage.MovingAverage
	requests map[string]int
}

// ResourceStats is a snapshot for one resource.
type ResourceStats struct {
	Resource string
	Requests int
	// AvgLatencyMs is the moving average over the last requests.
	AvgLatencyMs float64
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{
		latency:  make(map[string]*movingaverage.MovingAverage),
		requests: make(map[string]int),
	}
}

// Observe records one request duration.
func (s *Stats) Observe(resource string, dur time.Duration) {
	s.Lock()
	defer s.Unlock()

	ma, ok := s.latency[resource]
	if !ok {
		ma = movingaverage.New(statsWindow)
		s.latency[resource] = ma
	}
	ma.Add(float64(dur/time.Microsecond) / 1000.0)
	s.requests[resource]++
}

// Snapshot returns stats for every observed resource, sorted by name.
func (s *Stats) Snapshot() []ResourceStats {
	s.Lock()
	defer s.Unlock()

	out := make([]ResourceStats, 0, len(s.latency))
	for resource, ma := range s.latency {
		out = append(out, ResourceStats{
			Resource:     resource,
			Requests:     s.requests[resource],
			AvgLatencyMs: ma.Avg(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}

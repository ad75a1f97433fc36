package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Lightweight per-step CPU profiler. A step is one streamer update or one viewer frame.

// Stat is the accumulated time and call count of one tracked operation.
type Stat struct {
	Name  string
	Total time.Duration
	Calls int
}

var (
	mu     sync.Mutex
	totals = make(map[string]*Stat)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s, ok := totals[name]
		if !ok {
			s = &Stat{Name: name}
			totals[name] = s
		}
		s.Total += d
		s.Calls++
		mu.Unlock()
	}
}

// Reset clears the current totals. Call at the start of each step.
func Reset() {
	mu.Lock()
	clear(totals)
	mu.Unlock()
}

// Snapshot returns the current totals, slowest first.
func Snapshot() []Stat {
	mu.Lock()
	list := make([]Stat, 0, len(totals))
	for _, s := range totals {
		list = append(list, *s)
	}
	mu.Unlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Total != list[j].Total {
			return list[i].Total > list[j].Total
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// TopN formats the n slowest operations of the current step.
// Example: "streaming.RecomputeNear:4.2ms(1), meshing.ExtractMesh:2.1ms(9)"
func TopN(n int) string {
	list := Snapshot()
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, s := range list[:n] {
		parts = append(parts, fmt.Sprintf("%s:%sms(%d)", s.Name, formatMs(s.Total), s.Calls))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing .0
func formatMs(d time.Duration) string {
	s := fmt.Sprintf("%.1f", float64(d.Microseconds())/1000.0)
	return strings.TrimSuffix(s, ".0")
}

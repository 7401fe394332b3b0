package bootstrap

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type entry struct {
	key   string
	value string
}

// Summary collects settings and counters of a run and prints them when the
// run ends.
type Summary struct {
	mu       sync.Mutex
	name     string
	version  string
	duration time.Duration
	settings []entry
	counters []entry
	out      io.Writer
}

// NewSummary creates an empty summary printed to stderr.
func NewSummary(name, version string) *Summary {
	return &Summary{name: name, version: version, out: os.Stderr}
}

// SetDuration records how long the run took.
func (s *Summary) SetDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = d
}

// Setting records a configuration value shown under Settings.
func (s *Summary) Setting(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = upsert(s.settings, key, fmt.Sprint(value))
}

// Count records a counter shown under Results.
func (s *Summary) Count(key string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = upsert(s.counters, key, fmt.Sprint(n))
}

func upsert(entries []entry, key, value string) []entry {
	for i := range entries {
		if entries[i].key == key {
			entries[i].value = value
			return entries
		}
	}
	return append(entries, entry{key: key, value: value})
}

// Display prints the summary. err is the outcome of the run.
func (s *Summary) Display(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.out
	fmt.Fprintf(w, "\n")
	if err != nil {
		fmt.Fprintf(w, "❌ %s %s failed after %.2fs\n\n", s.name, s.version, s.duration.Seconds())
	} else {
		fmt.Fprintf(w, "✅ %s %s finished in %.2fs\n\n", s.name, s.version, s.duration.Seconds())
	}
	printSection(w, "⚙️  Settings", s.settings)
	printSection(w, "📊 Results", s.counters)
	if err != nil {
		fmt.Fprintf(w, "   %v\n\n", err)
	}
}

func printSection(w io.Writer, title string, entries []entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", title)
	for i, e := range entries {
		prefix := "├──"
		if i == len(entries)-1 {
			prefix = "└──"
		}
		fmt.Fprintf(w, "   %s %s: %s\n", prefix, e.key, e.value)
	}
	fmt.Fprintf(w, "\n")
}

// Package lastreport keeps the most recent combination report so the manual
// odds entry panel can read its odds after the invocation has returned.
package lastreport

import (
	"errors"
	"sync"
	"time"

	"github.com/mselser95/betview/internal/report"
)

var (
	// ErrEmpty is returned when no report has been stored yet.
	ErrEmpty = errors.New("no report stored")
	// ErrNoMatch is returned when the stored report found no match, so it
	// carries no odds.
	ErrNoMatch = errors.New("last report found no match")
)

// Entry is the stored report with the scenario that produced it.
type Entry struct {
	Scenario string
	Report   *report.Report
	StoredAt time.Time
}

// Store is a single-slot, concurrency-safe report holder. The most recent Set
// wins.
type Store struct {
	mu    sync.RWMutex
	entry *Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Set replaces the stored report.
func (s *Store) Set(scenario string, r *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry = &Entry{Scenario: scenario, Report: r, StoredAt: time.Now()}
}

// Get returns the stored entry.
func (s *Store) Get() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entry == nil {
		return Entry{}, false
	}
	return *s.entry, true
}

// Odds returns the combination-major odds table of the stored report.
func (s *Store) Odds() (report.Table, error) {
	e, ok := s.Get()
	if !ok {
		return nil, ErrEmpty
	}
	if !e.Report.Found() {
		return nil, ErrNoMatch
	}
	return report.CombineOddsTableOf(e.Report.Text)
}

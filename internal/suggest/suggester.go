// Package suggest implements the debounced exercise search box backing each
// exercise row. Every query edit schedules a single pending fetch after a
// quiet period; re-editing cancels and replaces it. A generation counter
// checked at fetch completion guarantees results for a superseded query never
// overwrite results for a newer one, regardless of network ordering.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/trakr-app/trakr/internal/lookup"
	"github.com/trakr-app/trakr/internal/models"
)

const (
	// DefaultDebounce is the quiet period between the last keystroke and
	// the fetch.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultMinQuery is the minimum trimmed query length that triggers a
	// fetch. Shorter queries clear the candidates and hide the dropdown.
	DefaultMinQuery = 2

	// DefaultMaxResults caps the visible candidate list.
	DefaultMaxResults = 8
)

// Options configures a Suggester. Zero values fall back to the defaults.
type Options struct {
	Debounce   time.Duration
	MinQuery   int
	MaxResults int

	// OnChange receives the display name of a selected candidate so the
	// owning row's text state stays consistent with the selection.
	OnChange func(name string)

	// OnSelect receives the full selected candidate.
	OnSelect func(s models.Suggestion)
}

// Snapshot is the externally visible state of a suggester at one moment.
type Snapshot struct {
	Query       string              `json:"query"`
	Suggestions []models.Suggestion `json:"suggestions"`
	Open        bool                `json:"open"`
}

// Suggester owns the candidate list and dropdown visibility for one search
// box. Safe for concurrent use; the debounce timer fires on its own
// goroutine.
type Suggester struct {
	searcher lookup.Searcher
	log      *slog.Logger
	opts     Options

	mu         sync.Mutex
	query      string
	candidates []models.Suggestion
	open       bool
	gen        uint64
	stopTimer  func() bool
	cancel     context.CancelFunc
	cache      map[string][]models.Suggestion
	closed     bool

	// schedule is swapped out by tests to fire the debounce deterministically.
	schedule func(d time.Duration, fn func()) func() bool
}

// New creates a Suggester backed by the given searcher.
func New(searcher lookup.Searcher, log *slog.Logger, opts Options) *Suggester {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinQuery <= 0 {
		opts.MinQuery = DefaultMinQuery
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Suggester{
		searcher: searcher,
		log:      log,
		opts:     opts,
		cache:    make(map[string][]models.Suggestion),
		schedule: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}
}

// SetQuery records a query edit. Any pending debounce timer and in-flight
// fetch for an older query are canceled. Queries shorter than the minimum
// trimmed length deactivate the box: candidates cleared, dropdown hidden,
// no fetch scheduled.
func (s *Suggester) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.query = query
	s.gen++
	s.cancelPendingLocked()

	trimmed := strings.TrimSpace(query)
	if len(trimmed) < s.opts.MinQuery {
		s.candidates = nil
		s.open = false
		return
	}

	gen := s.gen
	s.stopTimer = s.schedule(s.opts.Debounce, func() { s.fire(gen, query) })
}

// fire runs when the debounce period elapses without another edit.
func (s *Suggester) fire(gen uint64, query string) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}

	trimmed := strings.ToLower(strings.TrimSpace(query))
	if cached, ok := s.cache[trimmed]; ok {
		s.candidates = cached
		s.open = true
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	results, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		// A newer query settled while this fetch was in flight.
		return
	}
	s.cancel = nil

	if err != nil {
		// Recovered locally: a failed lookup must not block manual entry.
		s.log.Error("suggestion fetch failed", "query", query, "error", err)
		s.candidates = nil
		s.open = false
		return
	}

	filtered := filterByName(results, trimmed, s.opts.MaxResults)
	s.cache[trimmed] = filtered
	s.candidates = filtered
	s.open = true
}

// filterByName keeps candidates whose name contains the term
// case-insensitively, capped at limit.
func filterByName(results []models.Suggestion, term string, limit int) []models.Suggestion {
	filtered := make([]models.Suggestion, 0, limit)
	for _, r := range results {
		if r.Name == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(r.Name), term) {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == limit {
			break
		}
	}
	return filtered
}

// Select commits a candidate: the display name is pushed through OnChange,
// the full record through OnSelect, and the dropdown closes, keeping caller
// and suggester state consistent.
func (s *Suggester) Select(candidate models.Suggestion) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = candidate.Name
	s.gen++
	s.cancelPendingLocked()
	s.open = false
	onChange := s.opts.OnChange
	onSelect := s.opts.OnSelect
	s.mu.Unlock()

	if onChange != nil {
		onChange(candidate.Name)
	}
	if onSelect != nil {
		onSelect(candidate)
	}
}

// Focus reopens the dropdown if candidates are present.
func (s *Suggester) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if len(s.candidates) > 0 {
		s.open = true
	}
}

// Snapshot returns the current query, candidates and dropdown visibility.
func (s *Suggester) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Suggestion, len(s.candidates))
	copy(out, s.candidates)
	return Snapshot{Query: s.query, Suggestions: out, Open: s.open}
}

// Close tears the suggester down: the pending timer and any in-flight fetch
// are canceled and their eventual resolution becomes a no-op.
func (s *Suggester) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.cancelPendingLocked()
	s.candidates = nil
	s.open = false
}

func (s *Suggester) cancelPendingLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

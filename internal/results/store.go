// Package results keeps the latest state of each admitted request so
// clients can poll for it by correlation id.
package results

import (
	"context"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/KillerHyena/Inquiro/internal/dispatch"
	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/infra"
)

const DefaultTTL = 30 * time.Minute

type Status string

const (
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
	StatusRetry     Status = "retry"
	StatusError     Status = "error"
)

// Final reports whether no further update is expected.
func (s Status) Final() bool {
	return s != StatusQueued
}

// Entry is a snapshot of one request slot.
type Entry struct {
	ID            string
	Function      domain.FunctionID
	Input         string
	Locale        string
	Status        Status
	QueuePosition int
	Response      string
	Model         string
	Latency       time.Duration
	Reason        string
	RetryAfter    time.Duration
	CreatedAt     time.Time
	CompletedAt   time.Time
}

// Store is an in-memory map of request slots. It implements dispatch.Sink;
// the first outcome for an id completes the slot and later ones are
// ignored. Deleted ids are remembered until the TTL passes so a late
// outcome cannot bring the slot back. Slots older than the TTL are removed
// by Sweep.
type Store struct {
	ttl    time.Duration
	logger infra.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
	deleted map[string]time.Time
}

func NewStore(ttl time.Duration, logger infra.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*Entry),
		deleted: make(map[string]time.Time),
	}
}

// Track registers a freshly admitted request. If its outcome already
// arrived, only the request metadata is filled in.
func (s *Store) Track(t dispatch.Ticket, input string, locale language.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, gone := s.deleted[t.ID]; gone {
		return
	}
	e, ok := s.entries[t.ID]
	if !ok {
		e = &Entry{ID: t.ID, Status: StatusQueued, CreatedAt: s.now()}
		s.entries[t.ID] = e
	}
	e.Function = t.Function.ID
	e.Input = input
	e.QueuePosition = t.Position
	if locale != language.Und {
		e.Locale = locale.String()
	}
}

// Deliver implements dispatch.Sink.
func (s *Store) Deliver(o dispatch.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, gone := s.deleted[o.ID]; gone {
		s.logger.Debug().Str("request_id", o.ID).Msg("results: outcome for deleted request dropped")
		return
	}
	e, ok := s.entries[o.ID]
	if !ok {
		e = &Entry{ID: o.ID, Function: o.Function, CreatedAt: s.now()}
		s.entries[o.ID] = e
	} else if e.Status.Final() {
		s.logger.Warn().Str("request_id", o.ID).Msg("results: duplicate outcome ignored")
		return
	}
	switch o.Kind {
	case dispatch.OutcomeSuccess:
		e.Status = StatusCompleted
	case dispatch.OutcomeRetry:
		e.Status = StatusRetry
	default:
		e.Status = StatusError
	}
	e.Response = o.Response
	e.Model = o.Model
	e.Latency = o.Latency
	e.Reason = o.Reason
	e.RetryAfter = o.RetryAfter
	e.QueuePosition = 0
	e.CompletedAt = o.CompletedAt
	if e.CompletedAt.IsZero() {
		e.CompletedAt = s.now()
	}
}

// Get returns a copy of the slot for id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Delete removes the slot and reports whether it existed. Outcomes that
// arrive for the id afterwards are dropped.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	s.deleted[id] = s.now()
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes slots created more than the TTL before now and returns how
// many were removed.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	for id, at := range s.deleted {
		if at.Before(cutoff) {
			delete(s.deleted, id)
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Debug().Int("evicted", n).Msg("results: swept expired entries")
			}
		}
	}
}

var _ dispatch.Sink = (*Store)(nil)

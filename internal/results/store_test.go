package results

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/KillerHyena/Inquiro/internal/dispatch"
	"github.com/KillerHyena/Inquiro/internal/domain"
)

func newTestStore(now time.Time) *Store {
	s := NewStore(10*time.Minute, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func ticket(id string, fn domain.FunctionID, pos int) dispatch.Ticket {
	f, _ := domain.LookupFunction(string(fn))
	return dispatch.Ticket{ID: id, Function: f, Position: pos}
}

func TestTrackThenDeliver(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(now)
	s.Track(ticket("a", domain.FunctionTranslate, 2), "hola", language.French)

	e, ok := s.Get("a")
	if !ok {
		t.Fatal("expected tracked entry")
	}
	if e.Status != StatusQueued || e.QueuePosition != 2 || e.Locale != "fr" || e.Input != "hola" {
		t.Fatalf("unexpected queued entry %+v", e)
	}

	s.Deliver(dispatch.Outcome{ID: "a", Function: domain.FunctionTranslate, Kind: dispatch.OutcomeSuccess, Response: "bonjour", Model: "gpt-3.5-turbo"})
	e, _ = s.Get("a")
	if e.Status != StatusCompleted || e.Response != "bonjour" || e.QueuePosition != 0 {
		t.Fatalf("unexpected completed entry %+v", e)
	}
	if !e.CompletedAt.Equal(now) {
		t.Fatalf("expected completion time from clock, got %v", e.CompletedAt)
	}
}

func TestDeliverBeforeTrack(t *testing.T) {
	s := newTestStore(time.Now())
	s.Deliver(dispatch.Outcome{ID: "a", Function: domain.FunctionCode, Kind: dispatch.OutcomeFatal, Reason: "boom"})
	s.Track(ticket("a", domain.FunctionCode, 1), "input", language.Und)

	e, ok := s.Get("a")
	if !ok {
		t.Fatal("expected entry")
	}
	if e.Status != StatusError || e.Reason != "boom" {
		t.Fatalf("track must not reset a finished slot: %+v", e)
	}
	if e.Input != "input" || e.Locale != "" {
		t.Fatalf("expected metadata filled in, got %+v", e)
	}
}

func TestDuplicateOutcomeIgnored(t *testing.T) {
	s := newTestStore(time.Now())
	s.Track(ticket("a", domain.FunctionExplain, 1), "x", language.Und)
	s.Deliver(dispatch.Outcome{ID: "a", Kind: dispatch.OutcomeRetry, Reason: "later", RetryAfter: 5 * time.Second})
	s.Deliver(dispatch.Outcome{ID: "a", Kind: dispatch.OutcomeSuccess, Response: "late"})

	e, _ := s.Get("a")
	if e.Status != StatusRetry || e.Response != "" || e.RetryAfter != 5*time.Second {
		t.Fatalf("second outcome must be ignored: %+v", e)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(time.Now())
	s.Track(ticket("a", domain.FunctionSummarize, 1), "x", language.Und)
	if !s.Delete("a") {
		t.Fatal("expected delete to report existing entry")
	}
	if s.Delete("a") {
		t.Fatal("expected second delete to report missing entry")
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("entry still present")
	}
}

func TestDeleteThenLateOutcome(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(start)
	s.Track(ticket("a", domain.FunctionSummarize, 1), "x", language.Und)
	s.Delete("a")

	s.Deliver(dispatch.Outcome{ID: "a", Function: domain.FunctionSummarize, Kind: dispatch.OutcomeSuccess, Response: "done"})
	if _, ok := s.Get("a"); ok {
		t.Fatal("deleted slot came back after its outcome")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", s.Len())
	}

	s.Sweep(start.Add(11 * time.Minute))
	if len(s.deleted) != 0 {
		t.Fatalf("expected expired deletion marker to be swept, got %d", len(s.deleted))
	}
	s.Deliver(dispatch.Outcome{ID: "a", Kind: dispatch.OutcomeSuccess})
	if _, ok := s.Get("a"); !ok {
		t.Fatal("outcome after marker expiry should be stored")
	}
}

func TestSweep(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(start)
	s.Track(ticket("old", domain.FunctionSummarize, 1), "x", language.Und)
	s.now = func() time.Time { return start.Add(8 * time.Minute) }
	s.Track(ticket("new", domain.FunctionSummarize, 2), "y", language.Und)

	if n := s.Sweep(start.Add(11 * time.Minute)); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := s.Get("old"); ok {
		t.Fatal("old entry not evicted")
	}
	if _, ok := s.Get("new"); !ok {
		t.Fatal("new entry evicted too early")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", s.Len())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestStore(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

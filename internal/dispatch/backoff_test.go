package dispatch

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBackoff(cfg BackoffConfig) (*Backoff, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBackoff(cfg)
	b.now = clock.Now
	return b, clock
}

func TestBackoffNoDelayBeforeFirstCall(t *testing.T) {
	b, _ := newTestBackoff(BackoffConfig{})
	if got := b.ShouldDelay(); got != 0 {
		t.Fatalf("ShouldDelay = %s, want 0", got)
	}
}

func TestBackoffFailureSequence(t *testing.T) {
	b, _ := newTestBackoff(BackoffConfig{Base: 5 * time.Second, Max: 60 * time.Second, Growth: 1.5})

	var delays []time.Duration
	prev := b.Status().CurrentDelay
	for i := 0; i < 12; i++ {
		b.RecordFailure()
		st := b.Status()
		if st.CurrentDelay < prev {
			t.Fatalf("failure %d: current delay decreased from %s to %s", i+1, prev, st.CurrentDelay)
		}
		if st.CurrentDelay > st.MaxDelay {
			t.Fatalf("failure %d: current delay %s above max %s", i+1, st.CurrentDelay, st.MaxDelay)
		}
		if st.ConsecutiveFailures != i+1 {
			t.Fatalf("failures = %d, want %d", st.ConsecutiveFailures, i+1)
		}
		prev = st.CurrentDelay
		delays = append(delays, b.ShouldDelay())
	}

	if !(delays[0] < delays[1] && delays[1] < delays[2] && delays[2] <= 60*time.Second) {
		t.Fatalf("expected strictly growing delays, got %v", delays[:3])
	}
	if delays[0] != 7500*time.Millisecond {
		t.Fatalf("first delay = %s, want 7.5s", delays[0])
	}
	if last := delays[len(delays)-1]; last != 60*time.Second {
		t.Fatalf("delay after many failures = %s, want cap 60s", last)
	}
}

func TestBackoffSuccessResets(t *testing.T) {
	b, _ := newTestBackoff(BackoffConfig{Base: 5 * time.Second, Max: 60 * time.Second, Growth: 2})
	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	before := b.Status()
	if before.CurrentDelay != 40*time.Second {
		t.Fatalf("current delay = %s, want 40s", before.CurrentDelay)
	}

	b.RecordSuccess()
	after := b.Status()
	if after.ConsecutiveFailures != 0 {
		t.Fatalf("failures = %d, want 0", after.ConsecutiveFailures)
	}
	if after.CurrentDelay > before.CurrentDelay {
		t.Fatalf("current delay grew from %s to %s", before.CurrentDelay, after.CurrentDelay)
	}
	if after.CurrentDelay != 20*time.Second {
		t.Fatalf("current delay = %s, want 20s", after.CurrentDelay)
	}
	if got := b.ShouldDelay(); got != 5*time.Second {
		t.Fatalf("ShouldDelay after success = %s, want base 5s", got)
	}

	for i := 0; i < 5; i++ {
		b.RecordSuccess()
	}
	if got := b.Status().CurrentDelay; got != 5*time.Second {
		t.Fatalf("current delay floor = %s, want 5s", got)
	}
}

func TestBackoffSubtractsElapsed(t *testing.T) {
	b, clock := newTestBackoff(BackoffConfig{Base: 4 * time.Second, Max: 30 * time.Second, Growth: 2})
	b.RecordFailure()
	clock.Advance(3 * time.Second)
	if got := b.ShouldDelay(); got != 5*time.Second {
		t.Fatalf("ShouldDelay = %s, want 5s", got)
	}
	clock.Advance(10 * time.Second)
	if got := b.ShouldDelay(); got != 0 {
		t.Fatalf("ShouldDelay = %s, want 0", got)
	}
}

func TestNewBackoffNormalizesConfig(t *testing.T) {
	b := NewBackoff(BackoffConfig{Base: time.Minute, Max: 10 * time.Second, Growth: 0.5})
	st := b.Status()
	if st.CurrentDelay != 10*time.Second || st.MaxDelay != 10*time.Second {
		t.Fatalf("unexpected status %+v", st)
	}
	if b.growth != DefaultGrowth {
		t.Fatalf("growth = %v, want %v", b.growth, DefaultGrowth)
	}
}

func TestNewBackoffRejectsNonFiniteGrowth(t *testing.T) {
	for _, g := range []float64{math.NaN(), math.Inf(1)} {
		b := NewBackoff(BackoffConfig{Base: time.Second, Max: time.Minute, Growth: g})
		if b.growth != DefaultGrowth {
			t.Fatalf("growth %v kept, want %v", b.growth, DefaultGrowth)
		}
		b.RecordFailure()
		b.RecordSuccess()
		if st := b.Status(); st.CurrentDelay != time.Second {
			t.Fatalf("current delay = %v, want base", st.CurrentDelay)
		}
	}
}

package dispatch

import (
	"math"
	"sync"
	"time"
)

const (
	DefaultBaseDelay = 5 * time.Second
	DefaultMaxDelay  = 60 * time.Second
	DefaultGrowth    = 1.5
)

// BackoffConfig configures a Backoff. Zero values take the defaults above.
type BackoffConfig struct {
	Base   time.Duration
	Max    time.Duration
	Growth float64
}

// BackoffStatus is a consistent snapshot of the controller state.
type BackoffStatus struct {
	ConsecutiveFailures int
	CurrentDelay        time.Duration
	MaxDelay            time.Duration
	LastCall            time.Time
}

// Backoff paces upstream calls. The spacing required after the last call
// grows geometrically with consecutive failures and is capped at Max.
// All state sits behind one mutex.
type Backoff struct {
	mu           sync.Mutex
	base         time.Duration
	max          time.Duration
	growth       float64
	lastCall     time.Time
	currentDelay time.Duration
	failures     int
	now          func() time.Time
}

// NewBackoff builds a controller starting with no failures.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.Base <= 0 {
		cfg.Base = DefaultBaseDelay
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultMaxDelay
	}
	if cfg.Base > cfg.Max {
		cfg.Base = cfg.Max
	}
	if cfg.Growth < 1 || math.IsNaN(cfg.Growth) || math.IsInf(cfg.Growth, 0) {
		cfg.Growth = DefaultGrowth
	}
	return &Backoff{
		base:         cfg.Base,
		max:          cfg.Max,
		growth:       cfg.Growth,
		currentDelay: cfg.Base,
		now:          time.Now,
	}
}

// ShouldDelay returns how long the caller must still wait before the next
// upstream call. It is zero before any call was recorded.
func (b *Backoff) ShouldDelay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastCall.IsZero() {
		return 0
	}
	wait := b.requiredLocked() - b.now().Sub(b.lastCall)
	if wait < 0 {
		return 0
	}
	return wait
}

// RecordSuccess clears the failure streak and shrinks the current delay
// toward the base.
func (b *Backoff) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	next := time.Duration(float64(b.currentDelay) / b.growth)
	if next < b.base {
		next = b.base
	}
	b.currentDelay = next
	b.lastCall = b.now()
}

// RecordFailure extends the failure streak and grows the current delay up
// to the cap.
func (b *Backoff) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.currentDelay = b.clampLocked(float64(b.currentDelay) * b.growth)
	b.lastCall = b.now()
}

// Status returns a snapshot for status reporting.
func (b *Backoff) Status() BackoffStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BackoffStatus{
		ConsecutiveFailures: b.failures,
		CurrentDelay:        b.currentDelay,
		MaxDelay:            b.max,
		LastCall:            b.lastCall,
	}
}

func (b *Backoff) requiredLocked() time.Duration {
	return b.clampLocked(float64(b.base) * math.Pow(b.growth, float64(b.failures)))
}

func (b *Backoff) clampLocked(d float64) time.Duration {
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= float64(b.max) {
		return b.max
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

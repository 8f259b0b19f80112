package dispatch

import (
	"time"

	"golang.org/x/text/language"

	"github.com/KillerHyena/Inquiro/internal/domain"
)

// Job is one admitted request. It is never modified after admission.
type Job struct {
	ID         string
	Function   domain.FunctionID
	Input      string
	Locale     language.Tag
	EnqueuedAt time.Time

	sink Sink
}

// Ticket is returned to the caller on successful admission.
type Ticket struct {
	ID       string
	Function domain.Function
	// Input is the text as queued, after trimming.
	Input      string
	Position   int
	EnqueuedAt time.Time
}

// OutcomeKind tags the Outcome variant.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeRetry   OutcomeKind = "retry"
	OutcomeFatal   OutcomeKind = "error"
)

// Outcome is the single result produced for a job. Response, Model and
// Latency are set for OutcomeSuccess; Reason for the failure kinds, and
// RetryAfter for OutcomeRetry.
type Outcome struct {
	ID          string
	Function    domain.FunctionID
	Kind        OutcomeKind
	Response    string
	Model       string
	Latency     time.Duration
	Reason      string
	RetryAfter  time.Duration
	CompletedAt time.Time
}

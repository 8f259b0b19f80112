package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5

	maxCommentLength = 2000
)

// Feedback is a user rating of a completed request.
type Feedback struct {
	RequestID string     `json:"request_id"`
	Function  FunctionID `json:"function"`
	Input     string     `json:"user_input"`
	Response  string     `json:"ai_response"`
	Model     string     `json:"model_used"`
	Rating    int        `json:"rating"`
	Comments  string     `json:"comments"`
	Timestamp time.Time  `json:"timestamp"`
}

// Validate checks the user supplied part of the feedback.
func (f Feedback) Validate() error {
	if strings.TrimSpace(f.RequestID) == "" {
		return fmt.Errorf("%w: request_id is required", ErrInvalidFeedback)
	}
	if f.Rating < MinRating || f.Rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidFeedback, MinRating, MaxRating)
	}
	if len([]rune(f.Comments)) > maxCommentLength {
		return fmt.Errorf("%w: comments must be at most %d characters", ErrInvalidFeedback, maxCommentLength)
	}
	return nil
}

package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrQueueFull       = errors.New("queue full")
	ErrUnknownFunction = errors.New("unknown function")
	ErrEmptyInput      = errors.New("input is required")
	ErrInputTooLong    = errors.New("input too long")
	ErrNoCredentials   = errors.New("no api credentials configured")
	ErrInvalidFeedback = errors.New("invalid feedback")
)

// Upstream call failures. Provider clients wrap one of these so the
// dispatcher can classify the outcome with errors.Is.
var (
	ErrRateLimited   = errors.New("upstream rate limited")
	ErrTransport     = errors.New("upstream transport failure")
	ErrModelNotFound = errors.New("upstream model not found")
	ErrConfiguration = errors.New("upstream configuration error")
)

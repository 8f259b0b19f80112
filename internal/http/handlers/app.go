package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/KillerHyena/Inquiro/internal/dispatch"
	"github.com/KillerHyena/Inquiro/internal/feedback"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/results"
	"github.com/KillerHyena/Inquiro/internal/usage"
)

// Admission is the part of the dispatcher the API talks to.
type Admission interface {
	Enqueue(functionID, input string, locale language.Tag, sink dispatch.Sink) (dispatch.Ticket, error)
	Depth() int
	Capacity() int
	BackoffStatus() dispatch.BackoffStatus
	Model() string
}

// UsageReporter summarizes recorded usage events.
type UsageReporter interface {
	Summary(ctx context.Context, since time.Time) ([]usage.FunctionStats, error)
}

type App struct {
	Dispatcher Admission
	Results    *results.Store
	// Sinks receive every outcome in addition to Results.
	Sinks    []dispatch.Sink
	Feedback feedback.Recorder
	Usage    UsageReporter
	Logger   infra.Logger
	Now      func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

const maxBodyBytes = 64 << 10

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

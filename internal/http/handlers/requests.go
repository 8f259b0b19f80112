package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KillerHyena/Inquiro/internal/dispatch"
	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/middleware"
	"github.com/KillerHyena/Inquiro/internal/results"
)

type enqueueRequest struct {
	Function string `json:"function"`
	Input    string `json:"input"`
	// Locale overrides the detected request locale, e.g. the target
	// language of the translate function.
	Locale string `json:"locale,omitempty"`
}

type enqueueResponse struct {
	RequestID     string `json:"request_id"`
	Status        string `json:"status"`
	QueuePosition int    `json:"queue_position"`
	Function      string `json:"function"`
}

func (a *App) EnqueueRequest(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if !a.decode(w, r, &req) {
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	if req.Locale != "" {
		tag, err := parseLocale(req.Locale)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid locale")
			return
		}
		locale = tag
	}

	sink := append(dispatch.MultiSink{a.Results}, a.Sinks...)
	ticket, err := a.Dispatcher.Enqueue(req.Function, req.Input, locale, sink)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownFunction):
			a.error(w, http.StatusBadRequest, "unknown_function", "Please select exactly one function")
		case errors.Is(err, domain.ErrEmptyInput):
			a.error(w, http.StatusBadRequest, "empty_input", "Please enter your request")
		case errors.Is(err, domain.ErrInputTooLong):
			a.error(w, http.StatusBadRequest, "input_too_long", err.Error())
		case errors.Is(err, domain.ErrQueueFull):
			w.Header().Set("Retry-After", "60")
			a.error(w, http.StatusServiceUnavailable, "queue_full", "Our servers are busy. Please try again in a few minutes.")
		default:
			a.Logger.Error().Err(err).Msg("handlers: enqueue failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to queue request")
		}
		return
	}
	a.Results.Track(ticket, ticket.Input, locale)

	w.Header().Set("Location", "/v1/requests/"+ticket.ID)
	a.json(w, http.StatusAccepted, enqueueResponse{
		RequestID:     ticket.ID,
		Status:        string(results.StatusQueued),
		QueuePosition: ticket.Position,
		Function:      string(ticket.Function.ID),
	})
}

type functionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type requestResponse struct {
	RequestID      string       `json:"request_id"`
	Status         string       `json:"status"`
	Function       *functionRef `json:"function,omitempty"`
	Input          string       `json:"input,omitempty"`
	Locale         string       `json:"locale,omitempty"`
	QueuePosition  int          `json:"queue_position,omitempty"`
	Response       string       `json:"response,omitempty"`
	Model          string       `json:"model,omitempty"`
	ProcessingTime float64      `json:"processing_time,omitempty"`
	Error          string       `json:"error,omitempty"`
	RetryAfter     int          `json:"retry_after,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

func (a *App) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := a.Results.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "Request not found. Please submit a new request.")
		return
	}
	if entry.Status == results.StatusRetry && entry.RetryAfter > 0 {
		w.Header().Set("Retry-After", itoaCeil(entry.RetryAfter))
	}
	a.json(w, http.StatusOK, toRequestResponse(entry))
}

func (a *App) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.Results.Delete(id) {
		a.error(w, http.StatusNotFound, "not_found", "request not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toRequestResponse(e results.Entry) requestResponse {
	resp := requestResponse{
		RequestID: e.ID,
		Status:    string(e.Status),
		Input:     e.Input,
		Locale:    e.Locale,
		CreatedAt: e.CreatedAt,
	}
	if fn, ok := domain.LookupFunction(string(e.Function)); ok {
		resp.Function = &functionRef{ID: string(fn.ID), Name: fn.Name, Icon: fn.Icon}
	}
	switch e.Status {
	case results.StatusQueued:
		resp.QueuePosition = e.QueuePosition
	case results.StatusCompleted:
		resp.Response = e.Response
		resp.Model = e.Model
		resp.ProcessingTime = math.Round(e.Latency.Seconds()*100) / 100
	case results.StatusRetry:
		resp.Error = e.Reason
		resp.RetryAfter = int(math.Ceil(e.RetryAfter.Seconds()))
	case results.StatusError:
		resp.Error = e.Reason
		if resp.Error == "" {
			resp.Error = "An unknown error occurred."
		}
	}
	if !e.CompletedAt.IsZero() {
		completed := e.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

package handlers

import (
	"net/http"

	"github.com/KillerHyena/Inquiro/internal/domain"
	"github.com/KillerHyena/Inquiro/internal/feedback"
	"github.com/KillerHyena/Inquiro/internal/results"
)

type feedbackRequest struct {
	RequestID string `json:"request_id"`
	Rating    int    `json:"rating"`
	Comments  string `json:"comments"`
}

// SubmitFeedback stores a rating for a finished request and drops its
// result slot.
func (a *App) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !a.decode(w, r, &req) {
		return
	}
	entry, ok := a.Results.Get(req.RequestID)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "Could not find the original request. Feedback not saved.")
		return
	}
	if entry.Status == results.StatusQueued {
		a.error(w, http.StatusConflict, "not_ready", "The request has not finished yet.")
		return
	}
	model := entry.Model
	if model == "" {
		model = a.Dispatcher.Model()
	}
	fb := domain.Feedback{
		RequestID: entry.ID,
		Function:  entry.Function,
		Input:     entry.Input,
		Response:  entry.Response,
		Model:     model,
		Rating:    req.Rating,
		Comments:  req.Comments,
		Timestamp: a.now().UTC(),
	}
	if err := fb.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_feedback", err.Error())
		return
	}
	if err := a.Feedback.Save(r.Context(), fb); err != nil {
		a.Logger.Error().Err(err).Str("request_id", fb.RequestID).Msg("handlers: save feedback failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save feedback")
		return
	}
	a.Results.Delete(entry.ID)
	a.json(w, http.StatusCreated, map[string]string{"status": "saved", "request_id": entry.ID})
}

func (a *App) FeedbackSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Feedback.Summary(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: feedback summary failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load feedback")
		return
	}
	if summary == nil {
		summary = []feedback.Summary{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": summary})
}

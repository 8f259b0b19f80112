package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KillerHyena/Inquiro/internal/usage"
)

const maxUsageWindowHours = 24 * 31

// UsageSummary reports per-function usage for the last ?hours= hours
// (default 24). It needs a database and answers 404 without one.
func (a *App) UsageSummary(w http.ResponseWriter, r *http.Request) {
	if a.Usage == nil {
		a.error(w, http.StatusNotFound, "not_found", "usage reporting is disabled")
		return
	}
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxUsageWindowHours {
			a.error(w, http.StatusBadRequest, "bad_request", "hours must be between 1 and 744")
			return
		}
		hours = v
	}
	since := a.now().Add(-time.Duration(hours) * time.Hour)
	stats, err := a.Usage.Summary(r.Context(), since)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: usage summary failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load usage")
		return
	}
	if stats == nil {
		stats = []usage.FunctionStats{}
	}
	a.json(w, http.StatusOK, map[string]any{"since": since.UTC(), "items": stats})
}

package handlers

import (
	"math"
	"net/http"
)

type statusResponse struct {
	QueueSize           int    `json:"queue_size"`
	QueueCapacity       int    `json:"queue_capacity"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	RetryDelay          int    `json:"retry_delay"`
	Status              string `json:"status"`
}

// Status reports queue depth and the backoff state. retry_delay is the
// current backoff delay in whole seconds, rounded up.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	st := a.Dispatcher.BackoffStatus()
	state := "normal"
	if st.ConsecutiveFailures > 0 {
		state = "delayed"
	}
	a.json(w, http.StatusOK, statusResponse{
		QueueSize:           a.Dispatcher.Depth(),
		QueueCapacity:       a.Dispatcher.Capacity(),
		ConsecutiveFailures: st.ConsecutiveFailures,
		RetryDelay:          int(math.Ceil(st.CurrentDelay.Seconds())),
		Status:              state,
	})
}

package handlers

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
	// Queue is "accepting" or "full".
	Queue string `json:"queue"`
}

// Health is a liveness probe. A full queue is reported but still answers 200.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Queue: "accepting"}
	if a.Dispatcher.Depth() >= a.Dispatcher.Capacity() {
		resp.Queue = "full"
	}
	a.json(w, http.StatusOK, resp)
}

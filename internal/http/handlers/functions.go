package handlers

import (
	"net/http"

	"github.com/KillerHyena/Inquiro/internal/domain"
)

type functionsResponse struct {
	Functions []domain.Function `json:"functions"`
	Model     string            `json:"model"`
	QueueSize int               `json:"queue_size"`
	Capacity  int               `json:"queue_capacity"`
}

func (a *App) Functions(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, functionsResponse{
		Functions: domain.Functions(),
		Model:     a.Dispatcher.Model(),
		QueueSize: a.Dispatcher.Depth(),
		Capacity:  a.Dispatcher.Capacity(),
	})
}

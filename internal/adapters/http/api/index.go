package api

import (
	"context"
	"net/http"

	"github.com/okian/frbviewer/internal/domain/model"
)

// IndexDependencies provides the event index.
type IndexDependencies interface {
	Events(ctx context.Context) []model.Event
}

// IndexHandler handles event index requests.
type IndexHandler struct {
	deps IndexDependencies
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(deps IndexDependencies) *IndexHandler {
	return &IndexHandler{deps: deps}
}

// HandleIndex handles GET /api/index requests.
func (h *IndexHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "api.index", http.MethodGet) {
		return
	}
	events := h.deps.Events(r.Context())
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
)

// SourcesDependencies lists and switches data sources.
type SourcesDependencies interface {
	Sources(ctx context.Context) model.Sources
	Switch(ctx context.Context, name string) (model.SwitchResult, error)
}

// SourcesHandler handles data source requests.
type SourcesHandler struct {
	deps   SourcesDependencies
	logger logger.Logger
}

// NewSourcesHandler creates a new data source handler.
func NewSourcesHandler(deps SourcesDependencies, log logger.Logger) *SourcesHandler {
	return &SourcesHandler{deps: deps, logger: log}
}

// HandleList handles GET /api/data-sources requests.
func (h *SourcesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, "api.data_sources", http.MethodGet) {
		return
	}
	out := h.deps.Sources(r.Context())
	if out.Sources == nil {
		out.Sources = []string{}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSwitch handles POST /api/data-sources/switch?source_name= requests.
func (h *SourcesHandler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	const op = "api.switch_source"
	if !allowMethod(w, r, op, http.MethodPost) {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("source_name"))
	if name == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("source_name is required")))
		return
	}

	res, err := h.deps.Switch(r.Context(), name)
	if err != nil {
		h.logger.Warn(r.Context(), "source switch rejected",
			logger.String("source", name),
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/frbviewer/internal/domain/model"
)

// PathTableDependencies provides candidate pages.
type PathTableDependencies interface {
	Candidates(ctx context.Context, offset, limit, topN int) (model.Page, error)
}

// PathTableHandler handles candidate table requests.
type PathTableHandler struct {
	deps         PathTableDependencies
	defaultLimit int
	maxLimit     int
}

// NewPathTableHandler creates a new path-table handler.
func NewPathTableHandler(deps PathTableDependencies, defaultLimit, maxLimit int) *PathTableHandler {
	return &PathTableHandler{deps: deps, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandlePathTable handles GET /api/path-table?offset=&limit=&top_n= requests.
func (h *PathTableHandler) HandlePathTable(w http.ResponseWriter, r *http.Request) {
	const op = "api.path_table"
	if !allowMethod(w, r, op, http.MethodGet) {
		return
	}
	q := r.URL.Query()

	offset, err := intParam(q, "offset", 0)
	if err != nil || offset < 0 {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("offset must be a non-negative integer")))
		return
	}
	limit, err := intParam(q, "limit", h.defaultLimit)
	if err != nil || limit < 1 || limit > h.maxLimit {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be within 1..%d", h.maxLimit)))
		return
	}
	topN, err := intParam(q, "top_n", 0)
	if err != nil || topN < 0 {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("top_n must be a positive integer")))
		return
	}

	page, err := h.deps.Candidates(r.Context(), offset, limit, topN)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/frbviewer/internal/adapters/repository"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
)

// Dependencies required by HTTP handlers: the catalog of the active data
// source and the source switch.
type Dependencies interface {
	Events(ctx context.Context) []model.Event
	Candidates(ctx context.Context, offset, limit, topN int) (model.Page, error)
	ImagePath(ctx context.Context, repo, relPath string) (string, error)
	Sources(ctx context.Context) model.Sources
	Switch(ctx context.Context, name string) (model.SwitchResult, error)
}

// Server wires HTTP routes for the viewer API.
type Server struct {
	deps Dependencies

	user         string
	password     string
	defaultLimit int
	maxLimit     int
	logger       logger.Logger

	healthHandler  *HealthHandler
	indexHandler   *IndexHandler
	tableHandler   *PathTableHandler
	imageHandler   *ImageHandler
	sourcesHandler *SourcesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		defaultLimit: defaultPageLimit,
		maxLimit:     defaultMaxLimit,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	log := s.logger.Named("api")
	s.healthHandler = NewHealthHandler()
	s.indexHandler = NewIndexHandler(deps)
	s.tableHandler = NewPathTableHandler(deps, s.defaultLimit, s.maxLimit)
	s.imageHandler = NewImageHandler(deps, log)
	s.sourcesHandler = NewSourcesHandler(deps, log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	auth := BasicAuth(s.user, s.password, s.logger.Named("auth"))
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestID(MetricsMiddleware(h, endpoint)))
	}

	route("/api/health", "health", s.healthHandler.HandleHealth)
	route("/api/index", "index", auth(s.indexHandler.HandleIndex))
	route("/api/path-table", "path_table", auth(s.tableHandler.HandlePathTable))
	route("/api/image", "image", auth(s.imageHandler.HandleImage))
	route("/api/data-sources", "data_sources", auth(s.sourcesHandler.HandleList))
	route("/api/data-sources/switch", "switch_source", auth(s.sourcesHandler.HandleSwitch))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {code, message}; code is the kind's text in snake case.
func writeError(w http.ResponseWriter, status int, kind, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = message(err)
	}
	writeJSON(w, status, errorResponse{Code: code(kind), Message: msg})
}

func code(kind error) string {
	return strings.ReplaceAll(kind.Error(), " ", "_")
}

// classify maps catalog and API error kinds to an HTTP status and kind.
// Anything unrecognised is an ErrInternal.
func classify(err error) (int, error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidOffset),
		errors.Is(err, repository.ErrUnknownRepo),
		errors.Is(err, repository.ErrInvalidPath):
		return http.StatusBadRequest, ErrBadRequest
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrUnknownSource):
		return http.StatusNotFound, ErrNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, ErrMethodNotAllowed
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, ErrUnauthorized
	default:
		return http.StatusInternalServerError, ErrInternal
	}
}

// writeFailure translates err into an HTTP error response.
func writeFailure(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	writeError(w, status, kind, err)
}

func allowMethod(w http.ResponseWriter, r *http.Request, op, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	writeFailure(w, NewKind(op, ErrMethodNotAllowed))
	return false
}

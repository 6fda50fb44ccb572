package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

// ImageDependencies resolves image files.
type ImageDependencies interface {
	ImagePath(ctx context.Context, repo, relPath string) (string, error)
}

// ImageHandler serves artifact images from the configured roots.
type ImageHandler struct {
	deps   ImageDependencies
	logger logger.Logger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(deps ImageDependencies, log logger.Logger) *ImageHandler {
	return &ImageHandler{deps: deps, logger: log}
}

// HandleImage handles GET /api/image?repo=&rel_path= requests. Range and
// conditional requests are honoured.
func (h *ImageHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	const op = "api.image"
	if !allowMethod(w, r, op, http.MethodGet) {
		return
	}
	repo := r.URL.Query().Get("repo")
	relPath := r.URL.Query().Get("rel_path")
	if repo == "" || relPath == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("repo and rel_path are required")))
		return
	}

	path, err := h.deps.ImagePath(r.Context(), repo, relPath)
	if err != nil {
		h.logger.Debug(r.Context(), "image lookup failed",
			logger.String("repo", repo),
			logger.String("rel_path", relPath),
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
		writeFailure(w, Wrap(op, err))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrNotFound, fmt.Errorf("image %s", relPath)))
		return
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrInternal, err))
		return
	}

	cw := &countingWriter{ResponseWriter: w}
	http.ServeContent(cw, r, filepath.Base(path), info.ModTime(), f)
	metrics.RecordImageBytes(repo, cw.n)
}

// countingWriter counts body bytes written.
type countingWriter struct {
	http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.ResponseWriter.Write(b)
	c.n += int64(n)
	return n, err
}

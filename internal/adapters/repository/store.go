// Package repository serves the catalog produced by the index build: the
// events, the paginated candidate table and the image roots of each data
// source.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/frbviewer/internal/config"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

// Catalog provides read access to one data source.
type Catalog interface {
	// Events returns the full event index.
	Events(ctx context.Context) []model.Event

	// Candidates returns one page of the candidate table. topN >= 1 keeps the
	// topN highest-pox rows of each event.
	Candidates(ctx context.Context, offset, limit, topN int) (model.Page, error)

	// Count returns the number of events.
	Count(ctx context.Context) int
}

// Store is the in-memory catalog of one data source. It is immutable after
// Open except for the lazily built top-N tables.
type Store struct {
	name   string
	source config.SourceConfig
	events []model.Event
	rows   []model.Candidate

	mu   sync.Mutex
	topN map[int][]model.Candidate

	maxPageLimit int
	logger       logger.Logger
}

// Open loads the index and candidate table of a source concurrently.
// A missing file yields an empty collection; an unreadable or malformed one
// fails the load.
func Open(ctx context.Context, name string, src config.SourceConfig, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	s := &Store{
		name:         name,
		source:       src,
		topN:         make(map[int][]model.Candidate),
		maxPageLimit: o.maxPageLimit,
		logger:       o.logger.Named("catalog").With(logger.String("source", name)),
	}

	start := time.Now()
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loadJSON(ctx, src.IndexPath, "event index", &s.events)
	})
	g.Go(func() error {
		return s.loadJSON(ctx, src.PathTablePath, "candidate table", &s.rows)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: source %s: %w", ErrLoad, name, err)
	}
	if err := model.ValidateEvents(s.events); err != nil {
		return nil, fmt.Errorf("%w: source %s: %s: %w", ErrLoad, name, src.IndexPath, err)
	}

	metrics.RecordCatalogLoad(float64(time.Since(start).Milliseconds()))
	metrics.UpdateCatalogSize(name, len(s.events), len(s.rows))
	s.logger.Info(ctx, "catalog loaded",
		logger.Int("events", len(s.events)),
		logger.Int("candidates", len(s.rows)),
		logger.Duration("took", time.Since(start)),
	)
	return s, nil
}

func (s *Store) loadJSON(ctx context.Context, path, what string, out any) error {
	if path == "" {
		s.logger.Warn(ctx, what+" path not configured; serving empty list")
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn(ctx, what+" not found; serving empty list", logger.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Name returns the data source name.
func (s *Store) Name() string { return s.name }

// Events returns the full event index.
func (s *Store) Events(_ context.Context) []model.Event {
	if s.events == nil {
		return []model.Event{}
	}
	return s.events
}

// Count returns the number of events.
func (s *Store) Count(_ context.Context) int { return len(s.events) }

// Candidates returns one page of the (optionally truncated) candidate table.
func (s *Store) Candidates(_ context.Context, offset, limit, topN int) (model.Page, error) {
	if limit < 1 || limit > s.maxPageLimit {
		return model.Page{}, fmt.Errorf("%w: limit must be within 1..%d", ErrInvalidLimit, s.maxPageLimit)
	}
	if offset < 0 {
		return model.Page{}, fmt.Errorf("%w: offset must not be negative", ErrInvalidOffset)
	}

	rows := s.rows
	if topN >= 1 {
		rows = s.truncated(topN)
	}

	total := len(rows)
	start := min(offset, total)
	end := start + min(limit, total-start)
	page := make([]model.Candidate, end-start)
	copy(page, rows[start:end])
	return model.Page{
		Rows:    page,
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		HasMore: end < total,
	}, nil
}

// truncated returns the table keeping the n highest-pox rows of each event,
// cached per n. Events keep their first-appearance order; within an event
// rows are ordered by pox descending with missing pox last.
func (s *Store) truncated(n int) []model.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rows, ok := s.topN[n]; ok {
		return rows
	}

	order := make(map[string]int)
	for i := range s.rows {
		if _, ok := order[s.rows[i].EventID]; !ok {
			order[s.rows[i].EventID] = len(order)
		}
	}
	sorted := make([]model.Candidate, len(s.rows))
	copy(sorted, s.rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		ei, ej := order[sorted[i].EventID], order[sorted[j].EventID]
		if ei != ej {
			return ei < ej
		}
		pi, iok := sorted[i].Probability()
		pj, jok := sorted[j].Probability()
		switch {
		case iok && jok:
			return pi > pj
		default:
			return iok && !jok
		}
	})

	kept := make(map[string]int)
	out := make([]model.Candidate, 0, len(sorted))
	for _, row := range sorted {
		if kept[row.EventID] < n {
			kept[row.EventID]++
			out = append(out, row)
		}
	}
	s.topN[n] = out
	return out
}

// ImagePath resolves an image to a file under its repo root. The result is
// guaranteed to stay inside the root.
func (s *Store) ImagePath(repo, relPath string) (string, error) {
	var root string
	switch repo {
	case model.RepoPath:
		root = s.source.PathRoot
	case model.RepoHost:
		root = s.source.HostRoot
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRepo, repo)
	}
	if root == "" {
		return "", fmt.Errorf("%w: repo %q", ErrRootNotConfigured, repo)
	}
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, relPath)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: repo %q: %w", ErrRootNotConfigured, repo, err)
	}
	full := filepath.Join(absRoot, filepath.FromSlash(relPath))
	if full != absRoot && !strings.HasPrefix(full, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the repo root", ErrInvalidPath, relPath)
	}

	// symlinks must not lead out of the root either
	resolved, err := filepath.EvalSymlinks(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidPath, relPath, err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: repo %q: %w", ErrRootNotConfigured, repo, err)
	}
	if resolved != realRoot && !strings.HasPrefix(resolved, realRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the repo root", ErrInvalidPath, relPath)
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	return resolved, nil
}

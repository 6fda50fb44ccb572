// Package indexer builds the event index and the flat candidate table from
// a PATH artifact tree laid out as <root>/[chime_path/]<year>/<FRB id>/.
package indexer

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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

const pathSubdir = "chime_path"

// Result is the output of one build.
type Result struct {
	Events     []model.Event
	Candidates []model.Candidate
	Warnings   []string
}

// Builder scans artifact trees.
type Builder struct {
	pathRoot    string
	hostRoot    string
	concurrency int
	logger      logger.Logger
}

// New creates a builder for the PATH tree under pathRoot.
func New(pathRoot string, opts ...Option) *Builder {
	b := &Builder{
		pathRoot:    pathRoot,
		concurrency: defaultConcurrency(),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("indexer")
	return b
}

type yearResult struct {
	events     []model.Event
	candidates []model.Candidate
	warnings   []string
}

// Build scans every year directory concurrently and assembles the results in
// sorted year order.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	root, err := filepath.Abs(b.pathRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathRoot, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s does not exist", ErrPathRoot, root)
	}
	scanRoot := root
	if info, err := os.Stat(filepath.Join(root, pathSubdir)); err == nil && info.IsDir() {
		scanRoot = filepath.Join(root, pathSubdir)
	}
	b.logger.Info(ctx, "scanning PATH repo", logger.String("root", scanRoot))

	hostImages, err := b.hostImages(ctx)
	if err != nil {
		return nil, err
	}

	years, err := subdirs(scanRoot, isYear)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}

	results := make([]yearResult, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, year := range years {
		g.Go(func() error {
			res, err := b.scanYear(gctx, root, filepath.Join(scanRoot, year), year, hostImages)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{Events: []model.Event{}, Candidates: []model.Candidate{}}
	for _, r := range results {
		out.Events = append(out.Events, r.events...)
		out.Candidates = append(out.Candidates, r.candidates...)
		out.Warnings = append(out.Warnings, r.warnings...)
	}

	metrics.UpdateIndexBuild(len(out.Events), len(out.Candidates))
	b.logger.Info(ctx, "index built",
		logger.Int("years", len(years)),
		logger.Int("events", len(out.Events)),
		logger.Int("candidates", len(out.Candidates)),
		logger.Int("warnings", len(out.Warnings)),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (b *Builder) scanYear(ctx context.Context, root, dir, year string, hostImages []hostImage) (yearResult, error) {
	var res yearResult
	ids, err := subdirs(dir, isEventDir)
	if err != nil {
		return res, fmt.Errorf("%w: year %s: %w", ErrScan, year, err)
	}
	b.logger.Debug(ctx, "scanning year", logger.String("year", year), logger.Int("events", len(ids)))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ev, cands, warn, err := b.scanEvent(ctx, root, filepath.Join(dir, id), year, id, hostImages)
		if err != nil {
			return res, err
		}
		res.events = append(res.events, ev)
		res.candidates = append(res.candidates, cands...)
		if warn != "" {
			res.warnings = append(res.warnings, warn)
		}
	}
	return res, nil
}

func (b *Builder) scanEvent(ctx context.Context, root, dir, year, id string, hostImages []hostImage) (model.Event, []model.Candidate, string, error) {
	ev := model.Event{ID: id, Year: year, Date: eventDate(id), Images: []model.ImageRef{}}

	pngs, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return ev, nil, "", fmt.Errorf("%w: %s: %w", ErrScan, id, err)
	}
	sort.Strings(pngs)
	seen := make(map[model.ImageKey]struct{})
	add := func(img model.ImageRef) {
		if _, dup := seen[img.Key()]; dup {
			return
		}
		seen[img.Key()] = struct{}{}
		ev.Images = append(ev.Images, img)
	}
	for _, p := range pngs {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return ev, nil, "", fmt.Errorf("%w: %s: %w", ErrScan, id, err)
		}
		name := filepath.Base(p)
		add(model.ImageRef{Repo: model.RepoPath, RelPath: filepath.ToSlash(rel), Filename: name, Kind: classifyPathImage(name)})
	}

	var (
		cands []model.Candidate
		warn  string
	)
	csvPath, err := findCandidateCSV(dir)
	switch {
	case err != nil:
		warn = fmt.Sprintf("%s: %v", id, err)
	case csvPath == "":
		b.logger.Debug(ctx, "no PATH CSV found", logger.String("frb_id", id))
	default:
		rows, err := readCSV(csvPath)
		if err != nil {
			warn = fmt.Sprintf("%s: read %s: %v", id, csvPath, err)
			break
		}
		if len(rows) > 0 {
			ev.Metrics = summarize(rows)
			cands = candidates(id, rows)
		}
	}
	if warn != "" {
		metrics.RecordIndexBuildWarning()
		b.logger.Warn(ctx, "candidate table skipped", logger.String("frb_id", id), logger.String("reason", warn))
	}

	for _, h := range hostImages {
		if strings.Contains(h.name, id) {
			add(model.ImageRef{Repo: model.RepoHost, RelPath: h.rel, Filename: h.name, Kind: classifyHostImage(h.name)})
		}
	}
	return ev, cands, warn, nil
}

type hostImage struct {
	rel  string
	name string
}

// hostImages lists every PNG under the host root, sorted by relative path.
// A missing host root is logged and ignored.
func (b *Builder) hostImages(ctx context.Context) ([]hostImage, error) {
	if b.hostRoot == "" {
		return nil, nil
	}
	root, err := filepath.Abs(b.hostRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: host root: %w", ErrScan, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		b.logger.Warn(ctx, "host root does not exist; skipping host images", logger.String("root", root))
		return nil, nil
	}

	var out []hostImage
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".png" {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, hostImage{rel: filepath.ToSlash(rel), name: d.Name()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: host root: %w", ErrScan, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, nil
}

// Write stores the result as indented JSON. Each file is replaced
// atomically.
func Write(res *Result, indexPath, tablePath string) error {
	if err := writeJSON(indexPath, res.Events); err != nil {
		return err
	}
	return writeJSON(tablePath, res.Candidates)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrWrite, path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func subdirs(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && keep(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func isYear(name string) bool { return name != "" && allDigits(name) }

func isEventDir(name string) bool { return strings.HasPrefix(strings.ToUpper(name), "FRB") }

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// eventDate extracts YYYYMMDD from ids like FRB20190425A.
func eventDate(id string) *string {
	if len(id) < 11 || !isEventDir(id) {
		return nil
	}
	d := id[3:11]
	if !allDigits(d) {
		return nil
	}
	return &d
}

func classifyPathImage(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "zoom"):
		return model.KindPathZoomIn
	case strings.Contains(n, "nostars"):
		return model.KindPathLocalNoStars
	case strings.Contains(n, "stars"):
		return model.KindPathLocalStars
	case strings.Contains(n, "path"):
		return model.KindPathMain
	default:
		return model.KindOther
	}
}

func classifyHostImage(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "ppxf"):
		return model.KindHostPPXF
	case strings.Contains(n, "sed"):
		return model.KindHostSED
	case strings.Contains(n, "spec"):
		return model.KindHostSpectra
	default:
		return model.KindHostOther
	}
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/frbviewer/internal/config"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

// Switch outcomes recorded by RecordSourceSwitch.
const (
	switchOK      = "ok"
	switchUnknown = "unknown"
	switchFailed  = "failed"
)

// Registry holds the configured data sources and the catalog currently
// served. Switching loads the new catalog first and swaps it in only when
// the load succeeds.
type Registry struct {
	sources map[string]config.SourceConfig
	opts    []Option
	logger  logger.Logger

	mu     sync.RWMutex
	active *Store

	// serialises switches so two loads never race for the slot
	switchMu sync.Mutex
}

// NewRegistry opens the initial source and returns the registry.
func NewRegistry(ctx context.Context, sources map[string]config.SourceConfig, initial string, opts ...Option) (*Registry, error) {
	o := buildOptions(opts)
	r := &Registry{
		sources: make(map[string]config.SourceConfig, len(sources)),
		opts:    opts,
		logger:  o.logger.Named("registry"),
	}
	for name, src := range sources {
		r.sources[name] = src
	}

	src, ok := r.sources[initial]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, initial)
	}
	store, err := Open(ctx, initial, src, opts...)
	if err != nil {
		return nil, err
	}
	r.active = store
	return r, nil
}

// Active returns the catalog currently served.
func (r *Registry) Active() *Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Names returns the configured source names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sources lists the configured sources and the active one.
func (r *Registry) Sources(_ context.Context) model.Sources {
	return model.Sources{Sources: r.Names(), Active: r.Active().Name()}
}

// Switch makes name the active source. On any failure the previous source
// stays active.
func (r *Registry) Switch(ctx context.Context, name string) (model.SwitchResult, error) {
	store, err := r.open(ctx, name)
	if err != nil {
		return model.SwitchResult{}, err
	}
	return model.SwitchResult{Active: store.Name(), EventCount: store.Count(ctx)}, nil
}

// Events returns the event index of the active source.
func (r *Registry) Events(ctx context.Context) []model.Event {
	return r.Active().Events(ctx)
}

// Candidates returns a candidate page of the active source.
func (r *Registry) Candidates(ctx context.Context, offset, limit, topN int) (model.Page, error) {
	return r.Active().Candidates(ctx, offset, limit, topN)
}

// ImagePath resolves an image against the active source's roots.
func (r *Registry) ImagePath(_ context.Context, repo, relPath string) (string, error) {
	return r.Active().ImagePath(repo, relPath)
}

func (r *Registry) open(ctx context.Context, name string) (*Store, error) {
	src, ok := r.sources[name]
	if !ok {
		metrics.RecordSourceSwitch(switchUnknown)
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}

	r.switchMu.Lock()
	defer r.switchMu.Unlock()

	store, err := Open(ctx, name, src, r.opts...)
	if err != nil {
		metrics.RecordSourceSwitch(switchFailed)
		r.logger.Error(ctx, "source switch failed", logger.String("source", name), logger.Error(err))
		return nil, err
	}

	r.mu.Lock()
	prev := r.active.Name()
	r.active = store
	r.mu.Unlock()

	metrics.RecordSourceSwitch(switchOK)
	r.logger.Info(ctx, "source switched",
		logger.String("from", prev),
		logger.String("to", name),
		logger.Int("events", store.Count(ctx)),
	)
	return store, nil
}

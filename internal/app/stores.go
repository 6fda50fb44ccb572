package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/metrics"
)

// Default bulk-load settings.
const (
	DefaultBatchSize    = 10_000
	DefaultConfirmAbove = 50_000
)

// Load operations named in LoadError.
const (
	OpLoadEvents = "load events"
	OpFetchPage  = "fetch page"
	OpLoadAll    = "load all"
)

// Backend is the viewer server as seen by the browsing session.
type Backend interface {
	Index(ctx context.Context) ([]model.Event, error)
	PathTable(ctx context.Context, offset, limit, topN int) (model.Page, error)
	DataSources(ctx context.Context) (model.Sources, error)
	SwitchSource(ctx context.Context, name string) (model.SwitchResult, error)
}

// EventIndex is the in-memory event collection. It is only ever replaced
// wholesale.
type EventIndex struct {
	Events []model.Event
	Loaded bool
}

// Replace swaps in a freshly loaded collection.
func (x *EventIndex) Replace(events []model.Event) {
	x.Events = events
	x.Loaded = true
}

// Lookup finds an event by id.
func (x *EventIndex) Lookup(id string) (model.Event, bool) {
	for i := range x.Events {
		if x.Events[i].ID == id {
			return x.Events[i], true
		}
	}
	return model.Event{}, false
}

// CandidateStore holds the last fetched page and, after a bulk load, every
// row for the current per-event mode.
type CandidateStore struct {
	Page      []model.Candidate
	Cursor    model.Cursor
	PageSize  int
	Mode      model.PerEventMode
	All       []model.Candidate
	AllLoaded bool
	Bulk      bool
}

// Rows returns the rows filtering works on: every row once a bulk load for
// the current mode completed, the current page otherwise.
func (s *CandidateStore) Rows() []model.Candidate {
	if s.AllLoaded {
		return s.All
	}
	return s.Page
}

// ResetBulk forgets the bulk-loaded rows.
func (s *CandidateStore) ResetBulk() {
	s.All = nil
	s.AllLoaded = false
}

// LoadEvents fetches the full event index.
func LoadEvents(ctx context.Context, b Backend) ([]model.Event, error) {
	events, err := b.Index(ctx)
	if err != nil {
		return nil, &LoadError{Op: OpLoadEvents, Err: err}
	}
	return events, nil
}

// FetchPage fetches one candidate page. topN < 1 requests every row.
func FetchPage(ctx context.Context, b Backend, offset, limit, topN int) (model.Page, error) {
	if offset < 0 || limit < 1 {
		return model.Page{}, &LoadError{
			Op:  OpFetchPage,
			Err: fmt.Errorf("%w: offset=%d limit=%d", ErrInvalidPageRequest, offset, limit),
		}
	}
	page, err := b.PathTable(ctx, offset, limit, topN)
	if err != nil {
		return model.Page{}, &LoadError{Op: OpFetchPage, Err: err}
	}
	return page, nil
}

// BulkOptions configure LoadAll.
type BulkOptions struct {
	TopN         int
	BatchSize    int
	ConfirmAbove int

	// Confirm is asked when the pre-flight total exceeds ConfirmAbove.
	// A nil Confirm declines.
	Confirm func(ctx context.Context, total int) bool
}

// LoadAll fetches every candidate row for topN, one page at a time. It never
// returns a partial result: any page failure discards what was accumulated.
func LoadAll(ctx context.Context, b Backend, opts BulkOptions) (rows []model.Candidate, err error) {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ConfirmAbove < 1 {
		opts.ConfirmAbove = DefaultConfirmAbove
	}
	defer func() {
		switch {
		case err == nil:
			metrics.RecordBulkLoad("ok", len(rows))
		case errors.Is(err, ErrUserAborted):
			metrics.RecordBulkLoad("aborted", 0)
		default:
			metrics.RecordBulkLoad("failed", 0)
		}
	}()

	preflight, err := FetchPage(ctx, b, 0, 1, opts.TopN)
	if err != nil {
		return nil, &LoadError{Op: OpLoadAll, Err: err}
	}
	total := preflight.Total
	if total > opts.ConfirmAbove && (opts.Confirm == nil || !opts.Confirm(ctx, total)) {
		return nil, ErrUserAborted
	}

	rows = make([]model.Candidate, 0, total)
	offset := 0
	for offset < total {
		page, err := FetchPage(ctx, b, offset, opts.BatchSize, opts.TopN)
		if err != nil {
			return nil, &LoadError{Op: OpLoadAll, Err: err}
		}
		rows = append(rows, page.Rows...)
		offset += len(page.Rows)
		if !page.HasMore || len(page.Rows) == 0 {
			break
		}
	}

	if len(rows) != total {
		return nil, &LoadError{
			Op:  OpLoadAll,
			Err: fmt.Errorf("%w: got %d of %d rows", ErrIncompleteBulkLoad, len(rows), total),
		}
	}
	return rows, nil
}

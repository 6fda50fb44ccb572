package app

import (
	"github.com/okian/frbviewer/internal/domain/filter"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/internal/domain/view"
)

// Action is an input to Reduce: a user intent or a fetch completion.
type Action interface {
	Kind() string
}

type (
	// Init issues the first loads of a session.
	Init struct{}

	// ReloadEvents refetches the event index.
	ReloadEvents struct{}
	// EventsLoaded completes an index fetch.
	EventsLoaded struct{ Events []model.Event }
	// EventsFailed completes an index fetch with an error.
	EventsFailed struct{ Err error }

	// FetchPageAt requests the candidate page starting at Offset.
	FetchPageAt struct{ Offset int }
	// NextPage moves forward one page when the cursor has more.
	NextPage struct{}
	// PrevPage moves back one page.
	PrevPage struct{}
	// GoToPage jumps to a 1-based page number, clamped to the known pages.
	GoToPage struct{ Page int }
	// PageLoaded completes a page fetch.
	PageLoaded struct{ Page model.Page }
	// PageFailed completes a page fetch with an error.
	PageFailed struct{ Err error }

	// SetPageSize changes the page size; it is snapped to a preset.
	SetPageSize struct{ Size int }
	// SetPerEventMode changes the per-event truncation.
	SetPerEventMode struct{ Mode model.PerEventMode }

	// LoadAllCandidates starts a bulk load for the current mode.
	LoadAllCandidates struct{}
	// BulkLoaded completes a bulk load issued under Mode and Epoch.
	BulkLoaded struct {
		Rows  []model.Candidate
		Mode  model.PerEventMode
		Epoch int
	}
	// BulkFailed completes a bulk load with an error, ErrUserAborted included.
	BulkFailed struct{ Err error }

	// SetEventFilter replaces the event filter parameters.
	SetEventFilter struct{ Params filter.EventParams }
	// SetCandidateCuts replaces the candidate cuts.
	SetCandidateCuts struct{ Cuts filter.CandidateCuts }

	// SelectEvent shows one event's images.
	SelectEvent struct{ ID string }
	// SelectGrid shows a grid mode over the filtered events.
	SelectGrid struct{ Mode view.GridMode }
	// ClearSelection returns to no selection.
	ClearSelection struct{}

	// OpenLightbox opens the gallery on screen at Index.
	OpenLightbox struct{ Index int }
	// LightboxPrev steps back.
	LightboxPrev struct{}
	// LightboxNext steps forward.
	LightboxNext struct{}
	// CloseLightbox discards the lightbox.
	CloseLightbox struct{}

	// RequestPlot projects the filtered candidates. Empty axes use defaults.
	RequestPlot struct{ X, Y string }

	// LoadSources lists the data sources.
	LoadSources struct{}
	// SourcesLoaded completes LoadSources.
	SourcesLoaded struct{ Sources model.Sources }
	// SourcesFailed completes LoadSources with an error.
	SourcesFailed struct{ Err error }
	// SwitchSource asks the server to change the active data source.
	SwitchSource struct{ Name string }
	// SourceSwitched completes a switch.
	SourceSwitched struct{ Result model.SwitchResult }
	// SwitchFailed completes a switch with an error.
	SwitchFailed struct {
		Name string
		Err  error
	}
)

func (Init) Kind() string              { return "init" }
func (ReloadEvents) Kind() string      { return "reload_events" }
func (EventsLoaded) Kind() string      { return "events_loaded" }
func (EventsFailed) Kind() string      { return "events_failed" }
func (FetchPageAt) Kind() string       { return "fetch_page" }
func (NextPage) Kind() string          { return "next_page" }
func (PrevPage) Kind() string          { return "prev_page" }
func (GoToPage) Kind() string          { return "go_to_page" }
func (PageLoaded) Kind() string        { return "page_loaded" }
func (PageFailed) Kind() string        { return "page_failed" }
func (SetPageSize) Kind() string       { return "set_page_size" }
func (SetPerEventMode) Kind() string   { return "set_per_event_mode" }
func (LoadAllCandidates) Kind() string { return "load_all" }
func (BulkLoaded) Kind() string        { return "bulk_loaded" }
func (BulkFailed) Kind() string        { return "bulk_failed" }
func (SetEventFilter) Kind() string    { return "set_event_filter" }
func (SetCandidateCuts) Kind() string  { return "set_candidate_cuts" }
func (SelectEvent) Kind() string       { return "select_event" }
func (SelectGrid) Kind() string        { return "select_grid" }
func (ClearSelection) Kind() string    { return "clear_selection" }
func (OpenLightbox) Kind() string      { return "open_lightbox" }
func (LightboxPrev) Kind() string      { return "lightbox_prev" }
func (LightboxNext) Kind() string      { return "lightbox_next" }
func (CloseLightbox) Kind() string     { return "close_lightbox" }
func (RequestPlot) Kind() string       { return "request_plot" }
func (LoadSources) Kind() string       { return "load_sources" }
func (SourcesLoaded) Kind() string     { return "sources_loaded" }
func (SourcesFailed) Kind() string     { return "sources_failed" }
func (SwitchSource) Kind() string      { return "switch_source" }
func (SourceSwitched) Kind() string    { return "source_switched" }
func (SwitchFailed) Kind() string      { return "switch_failed" }

// Effect is a fetch Reduce asks the controller to run. Its completion comes
// back as an action.
type Effect interface {
	effect()
}

type (
	// FetchEvents loads the event index.
	FetchEvents struct{}
	// FetchCandidatePage loads one page.
	FetchCandidatePage struct {
		Offset int
		Limit  int
		Mode   model.PerEventMode
	}
	// BulkLoad loads every row for Mode from the source active at Epoch.
	BulkLoad struct {
		Mode  model.PerEventMode
		Epoch int
	}
	// FetchSources lists the data sources.
	FetchSources struct{}
	// ChangeSource switches the server's active source.
	ChangeSource struct{ Name string }
)

func (FetchEvents) effect()        {}
func (FetchCandidatePage) effect() {}
func (BulkLoad) effect()           {}
func (FetchSources) effect()       {}
func (ChangeSource) effect()       {}

// Package app is the browsing session: the event index and candidate store,
// the reducer that keeps the filtered views consistent, and the controller
// loop that applies actions one at a time.
package app

import (
	"github.com/okian/frbviewer/internal/domain/filter"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/internal/domain/plot"
	"github.com/okian/frbviewer/internal/domain/view"
)

// Phase of a load.
type Phase int

// Load phases.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Status is the user-visible status line of one area.
type Status struct {
	Phase Phase
	Text  string
}

// State is the whole session. Reduce treats it as a value: slices are
// replaced, never mutated in place.
type State struct {
	Source       string
	Sources      []string
	SourceStatus Status
	// Epoch counts completed source switches. Results issued under an
	// older epoch belong to the previous source.
	Epoch int

	Index          EventIndex
	IndexStatus    Status
	EventParams    filter.EventParams
	FilteredEvents []model.Event

	Candidates         CandidateStore
	CandidateStatus    Status
	Cuts               filter.CandidateCuts
	FilteredCandidates []model.Candidate

	Selection   view.Selection
	Gallery     []model.ImageRef
	Placeholder bool
	Lightbox    *view.Lightbox

	Columns     []string
	Axes        plot.Axes
	Points      []plot.Point
	PlotWarning string
}

// NewState returns the initial state: nothing loaded, nothing selected.
func NewState(pageSize int, mode model.PerEventMode) State {
	if mode == "" {
		mode = model.PerEventAll
	}
	return State{
		Candidates: CandidateStore{
			PageSize: model.SnapPageSize(pageSize),
			Mode:     mode,
		},
		Selection: view.None(),
	}
}

// derive recomputes every filtered view, events first.
func (s *State) derive() {
	s.FilteredEvents = filter.Events(s.Index.Events, s.EventParams)
	allowed := filter.EventIDs(s.FilteredEvents)
	s.FilteredCandidates = filter.Candidates(s.Candidates.Rows(), allowed, s.Cuts)
	s.Gallery = view.Gallery(s.Selection, s.FilteredEvents)
	s.Placeholder = view.Placeholder(s.Selection, s.Gallery)
}

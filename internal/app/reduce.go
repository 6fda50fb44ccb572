package app

import (
	"errors"
	"fmt"

	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/internal/domain/plot"
	"github.com/okian/frbviewer/internal/domain/view"
)

// Reduce applies one action and returns the next state and the fetches to
// run. It is pure: every input change re-derives the filtered events, then
// the filtered candidates, then the gallery.
func Reduce(s State, a Action) (State, []Effect) {
	switch a := a.(type) {
	case Init:
		s.SourceStatus = loading("Loading data sources...")
		s.IndexStatus = loading("Loading event index...")
		s.CandidateStatus = loading("Loading candidates...")
		return s, []Effect{FetchSources{}, FetchEvents{}, s.pageEffect(0)}

	case ReloadEvents:
		s.IndexStatus = loading("Loading event index...")
		return s, []Effect{FetchEvents{}}

	case EventsLoaded:
		s.Index.Replace(a.Events)
		s.IndexStatus = ready(fmt.Sprintf("Loaded %d events", len(a.Events)))
		if s.Selection.Kind == view.SingleEventSelected {
			if ev, ok := s.Index.Lookup(s.Selection.Event.ID); ok {
				s.Selection = view.Single(ev)
			} else {
				s.Selection = view.None()
			}
		}
		s.derive()
		return s, nil

	case EventsFailed:
		s.IndexStatus = failed("Failed to load event index", a.Err)
		return s, nil

	case FetchPageAt:
		if a.Offset < 0 {
			return s, nil
		}
		s.CandidateStatus = loading("Loading candidates...")
		return s, []Effect{s.pageEffect(a.Offset)}

	case NextPage:
		c := s.Candidates.Cursor
		if !c.HasMore {
			return s, nil
		}
		return Reduce(s, FetchPageAt{Offset: c.Offset + s.Candidates.PageSize})

	case PrevPage:
		c := s.Candidates.Cursor
		if c.Offset == 0 {
			return s, nil
		}
		return Reduce(s, FetchPageAt{Offset: max(0, c.Offset-s.Candidates.PageSize)})

	case GoToPage:
		size := s.Candidates.PageSize
		pages := model.Cursor{Limit: size, Total: s.Candidates.Cursor.Total}.TotalPages()
		p := min(max(a.Page, 1), pages)
		return Reduce(s, FetchPageAt{Offset: (p - 1) * size})

	case PageLoaded:
		// late pages are applied as they arrive
		s.Candidates.Page = a.Page.Rows
		s.Candidates.Cursor = a.Page.Cursor()
		s.CandidateStatus = ready(pageText(a.Page))
		s.derive()
		return s, nil

	case PageFailed:
		s.CandidateStatus = failed("Failed to load candidates", a.Err)
		return s, nil

	case SetPageSize:
		size := model.SnapPageSize(a.Size)
		if size == s.Candidates.PageSize {
			return s, nil
		}
		s.Candidates.PageSize = size
		s.Candidates.ResetBulk()
		s.derive()
		return Reduce(s, FetchPageAt{Offset: 0})

	case SetPerEventMode:
		if a.Mode == "" || a.Mode == s.Candidates.Mode {
			return s, nil
		}
		s.Candidates.Mode = a.Mode
		s.Candidates.ResetBulk()
		s.derive()
		return Reduce(s, FetchPageAt{Offset: 0})

	case LoadAllCandidates:
		if s.Candidates.Bulk {
			return s, nil
		}
		s.Candidates.Bulk = true
		s.CandidateStatus = loading(fmt.Sprintf("Loading all candidates (%s)...", s.Candidates.Mode))
		return s, []Effect{BulkLoad{Mode: s.Candidates.Mode, Epoch: s.Epoch}}

	case BulkLoaded:
		if a.Epoch != s.Epoch {
			if !s.Candidates.Bulk {
				s.CandidateStatus = ready("Ignored bulk load started before switching to " + s.Source)
			}
			return s, nil
		}
		s.Candidates.Bulk = false
		if a.Mode != s.Candidates.Mode {
			s.CandidateStatus = ready(fmt.Sprintf("Ignored bulk load for %s; mode is now %s", a.Mode, s.Candidates.Mode))
			return s, nil
		}
		s.Candidates.All = a.Rows
		s.Candidates.AllLoaded = true
		s.CandidateStatus = ready(fmt.Sprintf("Loaded all %d candidates", len(a.Rows)))
		s.derive()
		return s, nil

	case BulkFailed:
		s.Candidates.Bulk = false
		if errors.Is(a.Err, ErrUserAborted) {
			s.CandidateStatus = ready("Bulk load cancelled")
			return s, nil
		}
		s.CandidateStatus = failed("Failed to load all candidates", a.Err)
		return s, nil

	case SetEventFilter:
		s.EventParams = a.Params
		s.derive()
		return s, nil

	case SetCandidateCuts:
		s.Cuts = a.Cuts
		s.derive()
		return s, nil

	case SelectEvent:
		ev, ok := s.Index.Lookup(a.ID)
		if !ok {
			return s, nil
		}
		s.Selection = view.Single(ev)
		s.derive()
		return s, nil

	case SelectGrid:
		s.Selection = view.Grid(a.Mode)
		s.derive()
		return s, nil

	case ClearSelection:
		s.Selection = view.None()
		s.derive()
		return s, nil

	case OpenLightbox:
		lb, err := view.Open(s.Gallery, a.Index)
		if err != nil {
			return s, nil
		}
		s.Lightbox = lb
		return s, nil

	case LightboxPrev:
		if s.Lightbox != nil {
			lb := *s.Lightbox
			lb.Prev()
			s.Lightbox = &lb
		}
		return s, nil

	case LightboxNext:
		if s.Lightbox != nil {
			lb := *s.Lightbox
			lb.Next()
			s.Lightbox = &lb
		}
		return s, nil

	case CloseLightbox:
		s.Lightbox = nil
		return s, nil

	case RequestPlot:
		s.plot(a.X, a.Y)
		return s, nil

	case LoadSources:
		s.SourceStatus = loading("Loading data sources...")
		return s, []Effect{FetchSources{}}

	case SourcesLoaded:
		s.Sources = a.Sources.Sources
		s.Source = a.Sources.Active
		s.SourceStatus = ready("Active source: " + s.Source)
		return s, nil

	case SourcesFailed:
		s.SourceStatus = failed("Failed to list data sources", a.Err)
		return s, nil

	case SwitchSource:
		if a.Name == "" {
			return s, nil
		}
		s.SourceStatus = loading("Switching to " + a.Name + "...")
		return s, []Effect{ChangeSource{Name: a.Name}}

	case SourceSwitched:
		return s.switched(a.Result)

	case SwitchFailed:
		s.SourceStatus = failed("Failed to switch to "+a.Name, a.Err)
		return s, nil
	}
	return s, nil
}

// switched resets everything tied to the old source and reloads both stores.
func (s State) switched(res model.SwitchResult) (State, []Effect) {
	s.Source = res.Active
	s.Epoch++
	if !contains(s.Sources, res.Active) {
		s.Sources = append(append([]string(nil), s.Sources...), res.Active)
	}
	s.SourceStatus = ready(fmt.Sprintf("Active source: %s (%d events)", res.Active, res.EventCount))

	s.Index = EventIndex{}
	s.Candidates = CandidateStore{PageSize: s.Candidates.PageSize, Mode: s.Candidates.Mode}
	s.Selection = view.None()
	s.Lightbox = nil
	s.Columns, s.Points, s.PlotWarning = nil, nil, ""
	s.Axes = plot.Axes{}
	s.derive()

	s.IndexStatus = loading("Loading event index...")
	s.CandidateStatus = loading("Loading candidates...")
	return s, []Effect{FetchEvents{}, s.pageEffect(0)}
}

func (s *State) plot(x, y string) {
	rows := s.FilteredCandidates
	s.Columns = plot.NumericColumns(rows)

	axes, ok := plot.DefaultAxes(s.Columns)
	if x != "" && contains(s.Columns, x) {
		axes.X, ok = x, true
	}
	if y != "" && contains(s.Columns, y) {
		axes.Y, ok = y, true
	}
	if !ok || axes.X == "" || axes.Y == "" {
		s.Axes, s.Points = plot.Axes{}, nil
		s.PlotWarning = "No numeric columns to plot"
		return
	}

	s.Axes = axes
	s.Points = plot.Project(rows, axes)
	s.PlotWarning = ""
	if !s.Candidates.AllLoaded {
		s.PlotWarning = fmt.Sprintf("Only the current page is loaded (%d rows); load all candidates for a complete plot", len(s.Candidates.Page))
	}
}

func (s *State) pageEffect(offset int) FetchCandidatePage {
	return FetchCandidatePage{Offset: offset, Limit: s.Candidates.PageSize, Mode: s.Candidates.Mode}
}

func pageText(p model.Page) string {
	if len(p.Rows) == 0 {
		return fmt.Sprintf("No candidates (total %d)", p.Total)
	}
	return fmt.Sprintf("Showing %d-%d of %d", p.Offset+1, p.Offset+len(p.Rows), p.Total)
}

func loading(text string) Status { return Status{Phase: PhaseLoading, Text: text} }
func ready(text string) Status   { return Status{Phase: PhaseReady, Text: text} }

func failed(text string, err error) Status {
	return Status{Phase: PhaseFailed, Text: fmt.Sprintf("%s: %v", text, err)}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

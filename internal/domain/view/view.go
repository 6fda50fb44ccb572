// Package view holds the selection state, the grid-mode predicates and the
// lightbox that sequence the image gallery.
package view

import (
	"fmt"
	"strings"

	"github.com/okian/frbviewer/internal/domain/model"
)

// SelectionKind tags the Selection state.
type SelectionKind int

// Selection states.
const (
	NoSelection SelectionKind = iota
	SingleEventSelected
	GridView
)

func (k SelectionKind) String() string {
	switch k {
	case SingleEventSelected:
		return "single"
	case GridView:
		return "grid"
	default:
		return "none"
	}
}

// Selection is what the gallery shows. Only the field matching Kind is set.
type Selection struct {
	Kind  SelectionKind
	Event model.Event
	Mode  GridMode
}

// None is the initial selection.
func None() Selection { return Selection{Kind: NoSelection} }

// Single selects one event.
func Single(ev model.Event) Selection { return Selection{Kind: SingleEventSelected, Event: ev} }

// Grid selects a grid mode over the filtered events.
func Grid(mode GridMode) Selection { return Selection{Kind: GridView, Mode: mode} }

// GridMode names an image predicate.
type GridMode string

// Grid modes.
const (
	GridPathMain         GridMode = "path-main"
	GridPathZoomIn       GridMode = "path-zoomin"
	GridPathLocalStars   GridMode = "path-local-stars"
	GridPathLocalNoStars GridMode = "path-local-nostars"
	GridPathAll          GridMode = "path-all"
	GridHostSpectra      GridMode = "host-spectra"
	GridHostSED          GridMode = "host-sed"
	GridHostPPXF         GridMode = "host-ppxf"
	GridHostAll          GridMode = "host-all"
)

// GridModes lists the modes in menu order.
var GridModes = []GridMode{
	GridPathMain, GridPathZoomIn, GridPathLocalStars, GridPathLocalNoStars, GridPathAll,
	GridHostSpectra, GridHostSED, GridHostPPXF, GridHostAll,
}

// ParseGridMode validates a mode name.
func ParseGridMode(s string) (GridMode, error) {
	m := GridMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range GridModes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGridMode, s)
}

// Matches reports whether an image belongs to the mode.
func (m GridMode) Matches(img model.ImageRef) bool {
	switch m {
	case GridPathAll:
		return img.Repo == model.RepoPath
	case GridHostAll:
		return img.Repo == model.RepoHost
	case GridPathMain, GridPathZoomIn, GridPathLocalStars, GridPathLocalNoStars:
		return img.Repo == model.RepoPath && img.Kind == string(m)
	case GridHostSpectra, GridHostSED, GridHostPPXF:
		return img.Repo == model.RepoHost && img.Kind == string(m)
	default:
		return false
	}
}

// Gallery returns the images the selection renders. A single event shows its
// own images regardless of grid mode; a grid walks the filtered events in
// order, then each event's images in order.
func Gallery(sel Selection, filtered []model.Event) []model.ImageRef {
	switch sel.Kind {
	case SingleEventSelected:
		return sel.Event.Images
	case GridView:
		var out []model.ImageRef
		for i := range filtered {
			for _, img := range filtered[i].Images {
				if sel.Mode.Matches(img) {
					out = append(out, img)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// Placeholder reports whether the "no matches" placeholder replaces the grid.
func Placeholder(sel Selection, gallery []model.ImageRef) bool {
	return sel.Kind == GridView && len(gallery) == 0
}

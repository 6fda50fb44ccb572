// Package model contains domain models passed between layers.
// JSON names follow the index files written by the index build, so the
// server and the browsing client share one wire shape.
package model

import "fmt"

// Image repositories.
const (
	RepoPath = "chime-path"
	RepoHost = "chime-host-analysis"
)

// Image kinds.
const (
	KindPathMain         = "path-main"
	KindPathZoomIn       = "path-zoomin"
	KindPathLocalStars   = "path-local-stars"
	KindPathLocalNoStars = "path-local-nostars"
	KindHostSpectra      = "host-spectra"
	KindHostSED          = "host-sed"
	KindHostPPXF         = "host-ppxf"
	KindHostOther        = "host-other"
	KindOther            = "other"
)

// Event is one cataloged FRB with its candidate summary and images.
// Events are immutable after load; a reload replaces the whole collection.
type Event struct {
	ID      string         `json:"frb_id"`
	Year    string         `json:"year,omitempty"`
	Date    *string        `json:"date"`
	Metrics Metrics        `json:"path"`
	Host    map[string]any `json:"host,omitempty"`
	Images  []ImageRef     `json:"images"`
}

// Metrics are the derived PATH association scores of an event.
type Metrics struct {
	Top1           *BestCandidate `json:"top1,omitempty"`
	Top1Score      *float64       `json:"top1_pox,omitempty"`
	SumTop2Score   *float64       `json:"sum_top2_pox,omitempty"`
	CandidateCount *int           `json:"n_candidates,omitempty"`
}

// BestCandidate is the highest-probability candidate of an event.
type BestCandidate struct {
	Mag         *float64 `json:"mag"`
	Pox         *float64 `json:"pox"`
	Po          *float64 `json:"po"`
	Pxo         *float64 `json:"pxo"`
	Survey      *string  `json:"survey"`
	ZPhotMedian *float64 `json:"z_phot_median"`
	ZSpec       *float64 `json:"z_spec"`
}

// ImageRef points at a renderable artifact; it never carries bytes.
type ImageRef struct {
	Repo     string `json:"repo"`
	RelPath  string `json:"rel_path"`
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
}

// ImageKey identifies the underlying artifact of an ImageRef.
type ImageKey struct {
	Repo    string
	RelPath string
}

// Key returns the (repo, rel_path) identity.
func (r ImageRef) Key() ImageKey {
	return ImageKey{Repo: r.Repo, RelPath: r.RelPath}
}

// Validate checks the invariants an event must hold after decoding.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrMissingEventID
	}
	for i, img := range e.Images {
		if img.RelPath == "" {
			return fmt.Errorf("%w: %s image %d", ErrMissingRelPath, e.ID, i)
		}
	}
	return nil
}

// ValidateEvents validates every event of a freshly decoded index.
func ValidateEvents(events []Event) error {
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

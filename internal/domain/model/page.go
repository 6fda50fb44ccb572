package model

import (
	"fmt"
	"strings"
)

// MaxPageLimit is the largest page the backend serves.
const MaxPageLimit = 10_000

// PageSizePresets are the page sizes offered to the user.
var PageSizePresets = []int{50, 100, 250, 500, 1000, 5000, 10000}

// SnapPageSize returns the largest preset not above n, or the smallest preset.
func SnapPageSize(n int) int {
	snapped := PageSizePresets[0]
	for _, p := range PageSizePresets {
		if p <= n {
			snapped = p
		}
	}
	return snapped
}

// Page is one response of GET /api/path-table.
type Page struct {
	Rows    []Candidate `json:"data"`
	Offset  int         `json:"offset"`
	Limit   int         `json:"limit"`
	Total   int         `json:"total"`
	HasMore bool        `json:"has_more"`
}

// Cursor describes the last fetched candidate page.
type Cursor struct {
	Offset  int
	Limit   int
	Total   int
	HasMore bool
}

// Cursor returns the page's pagination cursor.
func (p Page) Cursor() Cursor {
	return Cursor{Offset: p.Offset, Limit: p.Limit, Total: p.Total, HasMore: p.HasMore}
}

// CurrentPage is 1-based.
func (c Cursor) CurrentPage() int {
	if c.Limit <= 0 {
		return 1
	}
	return c.Offset/c.Limit + 1
}

// TotalPages returns at least 1.
func (c Cursor) TotalPages() int {
	if c.Limit <= 0 || c.Total <= 0 {
		return 1
	}
	return (c.Total + c.Limit - 1) / c.Limit
}

// Sources is the response of GET /api/data-sources.
type Sources struct {
	Sources []string `json:"sources"`
	Active  string   `json:"active"`
}

// SwitchResult is the response of POST /api/data-sources/switch.
type SwitchResult struct {
	Active     string `json:"active"`
	EventCount int    `json:"frb_count"`
}

// PerEventMode controls how many candidates per event the server returns.
type PerEventMode string

// Per-event modes.
const (
	PerEventTop1 PerEventMode = "top1"
	PerEventTop2 PerEventMode = "top2"
	PerEventTop5 PerEventMode = "top5"
	PerEventAll  PerEventMode = "all"
)

// TopN returns the server-side truncation, 0 meaning no truncation.
func (m PerEventMode) TopN() int {
	switch m {
	case PerEventTop1:
		return 1
	case PerEventTop2:
		return 2
	case PerEventTop5:
		return 5
	default:
		return 0
	}
}

// ParsePerEventMode accepts top1, top2, top5 and all (case-insensitive).
func ParsePerEventMode(s string) (PerEventMode, error) {
	m := PerEventMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PerEventTop1, PerEventTop2, PerEventTop5, PerEventAll:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPerEventMode, s)
}

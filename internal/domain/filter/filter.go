// Package filter derives the filtered event and candidate subsets.
//
// Both derivations are pure and recomputed in full on every input change.
// Candidate filtering depends on the already filtered event ids, so callers
// must run Events before Candidates.
package filter

import (
	"strings"

	"github.com/okian/frbviewer/internal/domain/model"
)

// EventParams narrow the event table. Nil bounds do not constrain.
type EventParams struct {
	IDSubstring     string
	MinTop1Score    *float64
	MinSumTop2Score *float64
}

// CandidateCuts narrow the candidate table. Nil bounds do not constrain.
type CandidateCuts struct {
	MinProbability *float64
	MaxProbability *float64
	MaxMagnitude   *float64
}

// Events returns the events matching p, in input order.
// An event missing a score is excluded only when that score's bound is set.
func Events(events []model.Event, p EventParams) []model.Event {
	needle := strings.ToLower(p.IDSubstring)
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if needle != "" && !strings.Contains(strings.ToLower(ev.ID), needle) {
			continue
		}
		if !atLeast(ev.Metrics.Top1Score, p.MinTop1Score) {
			continue
		}
		if !atLeast(ev.Metrics.SumTop2Score, p.MinSumTop2Score) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// EventIDs returns the id set of events.
func EventIDs(events []model.Event) map[string]struct{} {
	ids := make(map[string]struct{}, len(events))
	for i := range events {
		ids[events[i].ID] = struct{}{}
	}
	return ids
}

// Candidates returns the rows whose event is in allowed and that no cut
// excludes, in input order. Orphan rows are dropped.
//
// A cut only rejects a present value: a row missing mag or pox passes the
// bounds on that column. This keeps incomplete survey rows visible.
func Candidates(rows []model.Candidate, allowed map[string]struct{}, cuts CandidateCuts) []model.Candidate {
	out := make([]model.Candidate, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if _, ok := allowed[row.EventID]; !ok {
			continue
		}
		if p, ok := row.Probability(); ok {
			if cuts.MinProbability != nil && p < *cuts.MinProbability {
				continue
			}
			if cuts.MaxProbability != nil && p > *cuts.MaxProbability {
				continue
			}
		}
		if m, ok := row.Magnitude(); ok && cuts.MaxMagnitude != nil && m > *cuts.MaxMagnitude {
			continue
		}
		out = append(out, *row)
	}
	return out
}

func atLeast(v, bound *float64) bool {
	if bound == nil {
		return true
	}
	return v != nil && *v >= *bound
}

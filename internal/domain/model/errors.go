package model

import "errors"

var (
	// ErrMissingEventID is returned when an event or candidate has no frb_id.
	ErrMissingEventID = errors.New("missing frb_id")

	// ErrMissingRelPath is returned when an image reference has no rel_path.
	ErrMissingRelPath = errors.New("missing rel_path")

	// ErrInvalidCandidateID is returned when cand_id is neither a string nor a number.
	ErrInvalidCandidateID = errors.New("cand_id must be a string or a number")

	// ErrUnknownPerEventMode is returned by ParsePerEventMode.
	ErrUnknownPerEventMode = errors.New("unknown per-event mode")
)

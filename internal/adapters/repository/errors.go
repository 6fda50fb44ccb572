package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidLimit      = errors.New("invalid page limit")
	ErrInvalidOffset     = errors.New("invalid page offset")
	ErrUnknownRepo       = errors.New("unknown repo")
	ErrRootNotConfigured = errors.New("root path not configured")
	ErrInvalidPath       = errors.New("invalid image path")
	ErrUnknownSource     = errors.New("unknown data source")
	ErrLoad              = errors.New("catalog load failed")
)

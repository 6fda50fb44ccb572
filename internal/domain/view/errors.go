package view

import "errors"

var (
	// ErrUnknownGridMode is returned by ParseGridMode.
	ErrUnknownGridMode = errors.New("unknown grid mode")

	// ErrIndexOutOfRange is returned when a lightbox opens outside the gallery.
	ErrIndexOutOfRange = errors.New("lightbox index out of range")
)

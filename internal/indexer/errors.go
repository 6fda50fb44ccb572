package indexer

import "errors"

// Sentinel kinds for index build errors.
var (
	ErrPathRoot = errors.New("path root unavailable")
	ErrScan     = errors.New("scan failed")
	ErrWrite    = errors.New("write index failed")
)

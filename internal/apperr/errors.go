// Package apperr defines the sentinel errors shared across the service,
// API, and MCP layers.
package apperr

import "errors"

var (
	// ErrNotFound covers both a missing file and the absence of a
	// well-formed embed occurrence at a rewrite target.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a rename or upload would
	// overwrite an existing file.
	ErrAlreadyExists = errors.New("already exists")
	// ErrBusy is returned when a reference-check pass is already
	// running for the same collection.
	ErrBusy = errors.New("operation already in progress")
)

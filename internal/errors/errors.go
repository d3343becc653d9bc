package errors

import "errors"

var (
	NotFound    = errors.New("not found")
	InvalidPath = errors.New("invalid path")
	EmptyText   = errors.New("text must not be empty")
	Unsupported = errors.New("operation not supported by this backend")

	// Connection marks failures of the live subscription itself, Decode marks
	// snapshots that arrived but could not be turned into records.
	Connection = errors.New("connection failed")
	Decode     = errors.New("decode failed")
)

var InvalidCursor = errors.New("invalid cursor")

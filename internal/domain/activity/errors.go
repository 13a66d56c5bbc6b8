package activity

import "errors"

var (
	// ErrInvalidInput indicates a malformed activity record.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrCompactionUnsupported is returned when the configured store cannot drop old records.
	ErrCompactionUnsupported = errors.New("activity store does not support compaction")
)

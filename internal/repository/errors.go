package repository

import "errors"

// ErrCorrupt is returned when a persisted log cannot be decoded
var ErrCorrupt = errors.New("corrupt activity log")

package project

import "errors"

var (
	// ErrProjectNotFound indicates the path is not a project under any watch root.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)

package memtrack

import "github.com/pkg/errors"

var (
	ErrMissingRequired  = errors.New("missing required fields")
	ErrNotInitialized   = errors.New("layout not initialized")
	ErrInitialized      = errors.New("already initialized")
	ErrTerminated       = errors.New("terminated")
	ErrOutOfSpace       = errors.New("out of space")
	ErrInvalidAlignment = errors.New("invalid alignment")
	ErrInvalidSize      = errors.New("invalid size")
	ErrInvalidAddr      = errors.New("invalid address")
	ErrCorrupted        = errors.New("header corrupted")
	ErrUnknownField     = errors.New("unknown field")
	ErrDuplicateHeap    = errors.New("duplicate heap name")
	ErrInvalidPlatform  = errors.New("invalid platform")
)

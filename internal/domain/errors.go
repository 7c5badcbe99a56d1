package domain

import "errors"

// Domain errors.
var (
	ErrInvalidLocation   = errors.New("breakpoint location cannot be resolved")
	ErrSymbolUnavailable = errors.New("symbol not found in target")
	ErrMemoryUnreadable  = errors.New("target memory unreadable")
	ErrTargetRunning     = errors.New("target process is not stopped")
	ErrNotLive           = errors.New("operation requires a live target")
	ErrInvalidLayout     = errors.New("invalid registry layout")
)

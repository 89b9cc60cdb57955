package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to adapters. Every error returned by the engine wraps
// exactly one of these.
var (
	ErrInvalidShape      = errors.New("invalid shape")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrAllocationFailure = errors.New("allocation failure")
)

// Kind classifies an error for adapters translating to their own conventions.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidShape
	KindTypeMismatch
	KindAllocationFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidShape:
		return "InvalidShape"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindAllocationFailure:
		return "AllocationFailure"
	default:
		return "Unknown"
	}
}

// KindOf maps err onto the engine's error taxonomy.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidShape):
		return KindInvalidShape
	case errors.Is(err, ErrTypeMismatch):
		return KindTypeMismatch
	case errors.Is(err, ErrAllocationFailure):
		return KindAllocationFailure
	default:
		return KindUnknown
	}
}

// ShapeError reports grid extents the engine cannot work with.
type ShapeError struct {
	Height int
	Width  int
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid shape %dx%d: %s", e.Height, e.Width, e.Reason)
}

func (e *ShapeError) Unwrap() error { return ErrInvalidShape }

// AllocError reports a buffer that could not be obtained.
type AllocError struct {
	What  string
	Bytes int64
	Cause error
}

func (e *AllocError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("allocating %s (%d bytes): %v", e.What, e.Bytes, e.Cause)
	}
	return fmt.Sprintf("allocating %s (%d bytes)", e.What, e.Bytes)
}

func (e *AllocError) Unwrap() error { return ErrAllocationFailure }

// TypeError reports input that is not a 2-D grid of a supported element kind.
func TypeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}

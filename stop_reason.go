package chatkit

import (
	"context"
	"errors"
	"fmt"
)

// StopReason classifies why assistant generation ended. The zero value
// StopNone means generation completed normally.
type StopReason string

const (
	StopNone      StopReason = ""
	StopError     StopReason = "error"
	StopCancel    StopReason = "cancel"
	StopAPIKey    StopReason = "apikey"
	StopRecursion StopReason = "recursion"
)

// ParseStopReason converts a persisted value back into a StopReason.
func ParseStopReason(s string) (StopReason, error) {
	switch r := StopReason(s); r {
	case StopNone, StopError, StopCancel, StopAPIKey, StopRecursion:
		return r, nil
	default:
		return StopNone, fmt.Errorf("stop reason %q: %w", s, ErrValidation)
	}
}

// ClassifyStop maps the error that ended a generation run to a StopReason.
// A nil error is a normal completion.
func ClassifyStop(err error) StopReason {
	switch {
	case err == nil:
		return StopNone
	case errors.Is(err, context.Canceled):
		return StopCancel
	case errors.Is(err, ErrInvalidAPIKey):
		return StopAPIKey
	case errors.Is(err, ErrRecursion):
		return StopRecursion
	default:
		return StopError
	}
}

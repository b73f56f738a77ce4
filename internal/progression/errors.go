package progression

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidXPSource    = errors.New("invalid xp source")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidTier        = errors.New("invalid league tier")
	ErrUnknownCategory    = errors.New("unknown achievement category")
	ErrMissingRequirement = errors.New("achievement requirement missing")
)

// ValidationError reports rejected input. The state passed in is left untouched.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

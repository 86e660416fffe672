package trigger

import (
	"errors"
	"strconv"
)

// ValidationError describes a trigger configuration mistake. It is returned
// eagerly, at the point a value is assigned or validated, and is never
// produced by the fire-time computations themselves.
type ValidationError struct {
	Message string
	Field   string // Optional: which field caused the error
	Value   string // Optional: the invalid value
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Message + " in " + e.Field + ": " + e.Value
	}
	return e.Message
}

// Is reports whether target is a ValidationError with the same message, so
// that errors carrying a field and value still match the sentinels below.
func (e *ValidationError) Is(target error) bool {
	var ve *ValidationError
	if !errors.As(target, &ve) {
		return false
	}
	return ve.Message == e.Message
}

// Sentinel configuration errors. Match them with errors.Is.
var (
	ErrNegativeRepeatCount = &ValidationError{
		Message: "repeat count must be >= 0, use RepeatIndefinitely for infinite",
	}

	ErrNegativeInterval = &ValidationError{Message: "repeat interval must be >= 0"}

	ErrZeroInterval = &ValidationError{
		Message: "repeat interval cannot be less than one millisecond when repeating",
	}

	ErrFractionalInterval = &ValidationError{
		Message: "repeat interval must be a whole number of milliseconds",
	}

	ErrEndBeforeStart = &ValidationError{Message: "end time cannot be before start time"}

	ErrUnknownMisfireInstruction = &ValidationError{Message: "unknown misfire instruction"}

	ErrMissingStartTime = &ValidationError{Message: "start time is required"}
)

func invalid(sentinel *ValidationError, field, value string) error {
	return &ValidationError{Message: sentinel.Message, Field: field, Value: value}
}

func validateRepeatCount(n int) error {
	if n < 0 && n != RepeatIndefinitely {
		return invalid(ErrNegativeRepeatCount, "repeatCount", strconv.Itoa(n))
	}
	return nil
}

package sweep

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotCached marks a coordinate that was not evaluated because the run
// only reads from the cache and no stored result existed.
var ErrNotCached = errors.New("result not in cache")

// ErrCancelled marks a coordinate that was never dispatched because the run
// was cancelled first.
var ErrCancelled = errors.New("not dispatched: run cancelled")

// ConfigError reports an invalid variable declaration or run configuration.
// It is the only error class that aborts a run, and it is raised before any
// evaluation starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// EvaluationError records a failure raised by the benchmarked function for
// one (point, repeat) cell.
type EvaluationError struct {
	Point  string
	Repeat int
	Err    error
	// Panicked is set when the function panicked rather than returning an error.
	Panicked bool
}

func (e *EvaluationError) Error() string {
	verb := "failed"
	if e.Panicked {
		verb = "panicked"
	}
	return fmt.Sprintf("evaluation %s at %s repeat %d: %v", verb, e.Point, e.Repeat, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// TimeoutError records an evaluation that exceeded its time bound.
type TimeoutError struct {
	Point  string
	Repeat int
	Limit  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("evaluation timed out after %v at %s repeat %d", e.Limit, e.Point, e.Repeat)
}

// Package errs defines the two hard failure classes of a planning pass.
//
// A ConfigurationError means the inputs disagree with themselves (targets that
// do not sum to one, min above max). A StateError means the holdings cannot
// support the requested computation (zero total value, a sell larger than what
// is held). Policy violations are not errors; they are returned as data.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrState         = errors.New("state error")
)

type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Msg, e.Err)
	}
	return "configuration: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

type StateError struct {
	Msg string
	Err error
}

func (e *StateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("state: %s: %v", e.Msg, e.Err)
	}
	return "state: " + e.Msg
}

func (e *StateError) Unwrap() error { return e.Err }

func (e *StateError) Is(target error) bool { return target == ErrState }

// Configuration builds a ConfigurationError from a format string.
func Configuration(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// State builds a StateError from a format string.
func State(format string, args ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsState reports whether err is, or wraps, a StateError.
func IsState(err error) bool { return errors.Is(err, ErrState) }

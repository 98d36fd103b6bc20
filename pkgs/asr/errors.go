package asr

import "fmt"

// ValidationError represents an invalid provider option.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// FetchError records which handshake step failed. It unwraps to the
// transport or poll error underneath, so errors.Is still sees the class.
type FetchError struct {
	Step    string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch error at step '%s': %s: %v", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch error at step '%s': %s", e.Step, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError represents a terminal response that could not be understood.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

package service

import "fmt"

// ValidationError represents a bad batch shape: too many files, a disallowed
// type, or unparseable options. Reported before any decode work starts.
type ValidationError struct {
	Reason string
	File   string
}

func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Reason, e.File)
	}
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// ConversionError represents a single image failing decode or re-encode,
// which aborts the whole batch. File names the offender.
type ConversionError struct {
	Reason string
	File   string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error: %s: %s", e.Reason, e.File)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// InternalError represents an unexpected failure in rendering or
// serialization. The detail is logged; callers surface it generically.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return "internal conversion failure"
}

func (e *InternalError) Unwrap() error { return e.Err }

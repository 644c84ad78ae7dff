package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an engine error.
type ErrorClass string

const (
	// ErrorClassConfiguration indicates the config tree itself is wrong.
	// Examples: malformed JSON, unknown tag, payload shape mismatch.
	// Always fatal for the whole run.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassExternal indicates an OS action failed in a way that is not a
	// plain unsuccessful exit status (registry access, unsupported platform).
	ErrorClassExternal ErrorClass = "external"

	// ErrorClassInternal indicates a state the engine should never reach.
	ErrorClassInternal ErrorClass = "internal"
)

// Error represents a classified error with context.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Tag is the command tag that produced the error, if applicable.
	Tag string `json:"tag,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Tag != "" {
		msg = fmt.Sprintf("[%s] %s (tag=%s)", e.Class, e.Message, e.Tag)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates an error for a failed OS interaction.
func NewExternalError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassExternal,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassInternal,
		Message: message,
		Err:     err,
	}
}

// WithTag adds command tag context to an error.
func (e *Error) WithTag(tag string) *Error {
	e.Tag = tag
	return e
}

// WithCode adds an error code to an error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsConfiguration returns true if the error is classified as a configuration error.
func IsConfiguration(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassConfiguration
	}
	return false
}

// IsExternal returns true if the error is classified as external.
func IsExternal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassExternal
	}
	return false
}

// IsInternal returns true if the error is classified as internal.
func IsInternal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassInternal
	}
	return false
}

// CodeOf returns the code of the first *Error in the chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Error codes.
const (
	ErrCodeMalformedJSON    = "MALFORMED_JSON"
	ErrCodeMalformedNode    = "MALFORMED_NODE"
	ErrCodeUnknownTag       = "UNKNOWN_TAG"
	ErrCodeDuplicateTag     = "DUPLICATE_TAG"
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
	ErrCodeInvalidCondition = "INVALID_CONDITION"
	ErrCodeIncludeBaseDir   = "INCLUDE_BASE_DIR"
	ErrCodeIncludeLoad      = "INCLUDE_LOAD"
	ErrCodeUnsupported      = "UNSUPPORTED"
	ErrCodeOSFailure        = "OS_FAILURE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified tilefilter error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Op names the failing operation for resource errors ("pipe", "wait", ...).
	Op string `json:"op,omitempty"`
	// Line is the 1-based line of filter output for protocol errors, 0 if unknown.
	Line int `json:"line,omitempty"`
	// Context is a truncated rendering of the offending value.
	Context string `json:"context,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	msg := e.Message
	switch {
	case e.Line > 0:
		msg = fmt.Sprintf("filter output:%d: %s", e.Line, e.Message)
	case e.Op != "":
		msg = fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Kind reports whether this is a resource, protocol or config error.
func (e *AppError) Kind() Kind { return KindOf(e.Code) }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Resource creates an error for a failed OS/process operation. op selects
// the code (pipe, spawn, exec, close, read, write, wait, join, store) and
// what names the endpoint or step.
func Resource(op, what string, cause error) *AppError {
	code, ok := opCodes[op]
	if !ok {
		code = ErrCodeExec
	}
	return &AppError{Code: code, Op: op, Message: what, Cause: cause}
}

// Protocol creates an error for malformed filter output found at line.
func Protocol(code ErrorCode, line int, message, context string) *AppError {
	return &AppError{Code: code, Line: line, Message: message, Context: context}
}

// Config creates an error for an invalid configuration field.
func Config(field, reason string) *AppError {
	e := &AppError{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("invalid configuration: %s", reason)}
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsProtocol reports whether err is a protocol error in filter output.
func IsProtocol(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind() == KindProtocol
}

// IsResource reports whether err is a resource error at the OS boundary.
func IsResource(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind() == KindResource
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

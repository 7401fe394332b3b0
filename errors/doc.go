// Package errors provides the structured error type used across tilefilter.
//
// Every failure of a filter invocation is an *AppError carrying a
// machine-readable code. Codes fall into three kinds: resource errors at the
// OS/process boundary (pipes, spawn, wait), protocol errors in the filter's
// output stream (syntax, malformed features) and configuration errors.
//
// Protocol errors also carry the 1-based line of the filter output where the
// offending value ended and a truncated rendering of that value.
package errors

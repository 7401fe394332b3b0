// Package filter runs a tile layer through an external command.
//
// The layer is written to the command's stdin as newline-delimited GeoJSON
// Features by a writer goroutine while the calling goroutine reads the
// command's stdout, validates each Feature and rebuilds the layer from
// them. Values that are not Features are skipped; a malformed Feature fails
// the invocation. The command is always reaped and the writer always joined
// before Layer returns, whatever the outcome.
//
// There is no timeout: a filter that never exits blocks Layer until the
// context is canceled.
package filter

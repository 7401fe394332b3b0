package jsonseq

import (
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// SyntaxError reports malformed input.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Reader yields successive top-level values from a stream.
type Reader struct {
	lines *lineReader
	dec   *json.Decoder
	err   error
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	lr := &lineReader{r: r}
	return &Reader{lines: lr, dec: json.NewDecoder(lr)}
}

// Next returns the next value. It returns io.EOF when the stream ended
// cleanly between values, a *SyntaxError for malformed input and the
// underlying reader's error if reading failed. A syntax error names the line
// where the malformed value starts. Once an error is returned, every later
// call returns it again.
func (r *Reader) Next() (Value, error) {
	if r.err != nil {
		return Value{}, r.err
	}
	prev := r.dec.InputOffset()
	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		switch {
		case r.lines.err != nil:
			r.err = r.lines.err
		case errors.Is(err, io.EOF):
			r.err = io.EOF
		default:
			r.err = r.syntaxError(prev, err)
		}
		return Value{}, r.err
	}
	// Decoding into RawMessage only matches brackets; the contents still
	// have to parse.
	if !json.Valid(raw) {
		r.err = r.syntaxError(prev, malformed(raw))
		return Value{}, r.err
	}
	return Value{raw: raw, line: r.lines.lineAt(r.dec.InputOffset())}, nil
}

func (r *Reader) syntaxError(prev int64, err error) *SyntaxError {
	return &SyntaxError{Line: r.lines.lineAt(r.lines.skipSpace(prev)), Err: err}
}

func malformed(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return errors.New("malformed JSON value")
}

// Line returns the line the reader has consumed up to.
func (r *Reader) Line() int {
	return r.lines.lineAt(r.dec.InputOffset())
}

// Package request implements the per-command request parsers (spec.md
// §4.2). Each parser consumes a command body positionally and produces a
// Request: an ordered field map that preserves parse order for tracing,
// the Go shape of the Python original's OrderedDict-backed DummyMessage.
package request

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTruncated is returned when a required fixed field would run off the
// end of the body.
var ErrTruncated = errors.New("request: body too short for field")

// field is one (name, raw bytes) pair in parse order.
type field struct {
	name  string
	value []byte
}

// Request is an ordered mapping from field name to raw byte-string. Field
// values are kept unmodified so handlers can re-emit them into traces.
type Request struct {
	Code   string
	fields []field
	lookup map[string][]byte
}

func newRequest(code string) *Request {
	return &Request{Code: code, lookup: make(map[string][]byte)}
}

func (r *Request) set(name string, value []byte) {
	r.fields = append(r.fields, field{name: name, value: value})
	r.lookup[name] = value
}

// Get returns the raw bytes for a named field, or nil if absent.
func (r *Request) Get(name string) []byte {
	return r.lookup[name]
}

// Has reports whether a field was present in the parsed body.
func (r *Request) Has(name string) bool {
	_, ok := r.lookup[name]
	return ok
}

// Trace renders the request's fields in parse order, one per line, for
// debug logging.
func (r *Request) Trace() string {
	if len(r.fields) == 0 {
		return ""
	}

	width := 0
	for _, f := range r.fields {
		if len(f.name) > width {
			width = len(f.name)
		}
	}

	var b strings.Builder
	for _, f := range r.fields {
		fmt.Fprintf(&b, "\t[%s]: [%s]\n", pad(f.name, width), f.value)
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// cursor walks a body slice, consuming fixed-width chunks and reporting
// ErrTruncated instead of panicking on short input.
type cursor struct {
	data []byte
}

func (c *cursor) take(n int) ([]byte, error) {
	if len(c.data) < n {
		return nil, ErrTruncated
	}
	v := c.data[:n]
	c.data = c.data[n:]
	return v, nil
}

func (c *cursor) peek() (byte, bool) {
	if len(c.data) == 0 {
		return 0, false
	}
	return c.data[0], true
}

// takeUntil consumes bytes up to (not including) the first occurrence of
// delim, then skips the delimiter itself. Used for the PAN field in CW/CY.
func (c *cursor) takeUntil(delim byte) ([]byte, error) {
	idx := -1
	for i, b := range c.data {
		if b == delim {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrTruncated
	}
	v := c.data[:idx]
	c.data = c.data[idx+1:]
	return v, nil
}

// keyedFieldWidth returns 33 if the first byte of data is one of the
// accepted scheme prefixes for this field, else 32 (spec.md §4.2, "Keyed
// field width").
func keyedFieldWidth(c *cursor, prefixes string) int {
	b, ok := c.peek()
	if !ok {
		return 32
	}
	if strings.IndexByte(prefixes, b) >= 0 {
		return 33
	}
	return 32
}

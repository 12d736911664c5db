// Package response implements the response builder (spec.md §4.3): an
// ordered accumulation of named fields emitted as a single length-prefixed
// frame, with the response code and error code always first.
package response

import (
	"github.com/yawning/hsm-sim/framing"
)

// Builder accumulates response fields in insertion order and emits a
// length-prefixed frame. Field names exist only for traceability — they
// are never transmitted on the wire.
type Builder struct {
	header []byte
	names  []string
	values [][]byte
}

// NewBuilder returns a Builder that will echo header verbatim into the
// frame it eventually builds.
func NewBuilder(header []byte) *Builder {
	return &Builder{header: header}
}

// SetResponseCode sets the two-character ASCII response code. By
// convention this is the first field set, so it is the first field
// emitted.
func (b *Builder) SetResponseCode(code string) *Builder {
	return b.Set("Response Code", []byte(code))
}

// SetErrorCode sets the two-character ASCII error code. By convention this
// is the second field set, following the response code.
func (b *Builder) SetErrorCode(code string) *Builder {
	return b.Set("Error Code", []byte(code))
}

// Set appends a named field to the response in insertion order.
func (b *Builder) Set(name string, value []byte) *Builder {
	b.names = append(b.names, name)
	b.values = append(b.values, value)
	return b
}

// Build concatenates all field values in insertion order and returns the
// length-prefixed frame (header included).
func (b *Builder) Build() []byte {
	var body []byte
	for _, v := range b.values {
		body = append(body, v...)
	}

	var out []byte
	buf := newFrameBuffer(&out)
	_ = framing.WriteFrame(buf, b.header, body)
	return out
}

// frameBuffer adapts a *[]byte to io.Writer so Build can reuse
// framing.WriteFrame instead of re-deriving the length-prefix logic.
type frameBuffer struct {
	out *[]byte
}

func newFrameBuffer(out *[]byte) *frameBuffer {
	return &frameBuffer{out: out}
}

func (f *frameBuffer) Write(p []byte) (int, error) {
	*f.out = append(*f.out, p...)
	return len(p), nil
}

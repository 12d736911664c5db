package session

import (
	"encoding/binary"

	"github.com/dchest/siphash"

	"github.com/yawning/hsm-sim/csrand"
)

// traceKey0/traceKey1 seed the per-process siphash instance used to derive
// a short trace ID per frame, so log lines from concurrently-executing
// handlers on the same connection can still be correlated to the request
// that produced them (responses may interleave, per spec.md §5).
var traceKey0, traceKey1 uint64

func init() {
	var seed [16]byte
	if err := csrand.Bytes(seed[:]); err != nil {
		panic(err)
	}
	traceKey0 = binary.LittleEndian.Uint64(seed[:8])
	traceKey1 = binary.LittleEndian.Uint64(seed[8:])
}

// traceID derives a short correlation ID for a frame's raw bytes.
func traceID(frame []byte) uint64 {
	return siphash.Hash(traceKey0, traceKey1, frame)
}

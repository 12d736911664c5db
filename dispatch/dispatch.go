// Package dispatch implements the command-code routing table (spec.md
// §4.6): a parser and a handler per known command code, with an unknown
// code bypassing parsing entirely and going straight to the ZZ path.
package dispatch

import (
	"github.com/yawning/hsm-sim/handlers"
	"github.com/yawning/hsm-sim/request"
)

// entry pairs a command's parser with its handler.
type entry struct {
	parse  request.Parser
	handle handlers.Handler
}

var table = map[string]entry{
	"A0": {request.ParseA0, handlers.A0},
	"BU": {request.ParseBU, handlers.BU},
	"CA": {request.ParseCA, handlers.CA},
	"CW": {request.ParseCW, handlers.CW},
	"CY": {request.ParseCY, handlers.CY},
	"DC": {request.ParseDC, handlers.DC},
	"EC": {request.ParseEC, handlers.EC},
	"FA": {request.ParseFA, handlers.FA},
	"HC": {request.ParseHC, handlers.HC},
	"NC": {request.ParseNC, handlers.NC},
}

// Dispatch parses body according to code's schema and runs the matching
// handler, returning the response frame. Unknown codes and parse failures
// both resolve to the ZZ path — a parse failure is not distinguishable
// from an unsupported command at this layer, since both mean "this body
// cannot be turned into a well-formed request".
func Dispatch(ctx *handlers.Context, header []byte, code string, body []byte) []byte {
	e, ok := table[code]
	if !ok {
		return handlers.Unknown(header)
	}

	req, err := e.parse(body)
	if err != nil {
		return handlers.Unknown(header)
	}

	return e.handle(ctx, header, req)
}

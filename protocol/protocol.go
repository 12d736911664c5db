// Package protocol holds the command inventory: the fixed mapping from a
// two-character request code to its response code, independent of parsing
// or handling.
package protocol

// ResponseCodeFor returns the response code for a given request command
// code, and whether the request code is recognised at all. Unknown codes
// get the "ZZ" response per spec.md §3 — a behavioural quirk of the
// simulator, kept for compatibility.
func ResponseCodeFor(code string) (response string, known bool) {
	resp, ok := responseCodes[code]
	if !ok {
		return unknownResponseCode, false
	}
	return resp, true
}

const unknownResponseCode = "ZZ"

var responseCodes = map[string]string{
	"A0": "A1",
	"BU": "BV",
	"CA": "CB",
	"CW": "CX",
	"CY": "CZ",
	"DC": "DD",
	"EC": "ED",
	"FA": "FB",
	"HC": "HD",
	"NC": "ND",
}

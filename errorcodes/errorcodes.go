// Package errorcodes defines the two-character ASCII error codes returned
// alongside every response code, and a small error type that carries one.
package errorcodes

// HSMError is a handler-level error that carries the two-character ASCII
// error code to be placed in the response, as opposed to a frame-level or
// schema-level error which aborts the session or the frame entirely.
type HSMError struct {
	code string
	msg  string
}

func (e HSMError) Error() string {
	return e.msg
}

// Code returns the two-character ASCII error code.
func (e HSMError) Code() string {
	return e.code
}

func newErr(code, msg string) HSMError {
	return HSMError{code: code, msg: msg}
}

// Well-known error codes, uniform across handlers (spec.md §4.5, §7).
var (
	// Err00 is success.
	Err00 = newErr("00", "success")
	// Err01 is a verification mismatch or invalid payload.
	Err01 = newErr("01", "verification mismatch or invalid payload")
	// Err10 is a source/working-key parity error.
	Err10 = newErr("10", "source key parity error")
	// Err11 is a destination/PVK parity error.
	Err11 = newErr("11", "destination key parity error")
	// Err15 is a malformed request body.
	Err15 = newErr("15", "invalid request body")
	// Err27 is a PVK that is not double length.
	Err27 = newErr("27", "PVK not double length")
	// Err05 is a schema violation surfaced as a response rather than a
	// dropped frame (spec.md §9 Open Questions, the CA format-mismatch case).
	Err05 = newErr("05", "unsupported or mismatched PIN block format")
)

// OK reports whether code is the success code ("00").
func OK(code string) bool {
	return code == Err00.Code()
}

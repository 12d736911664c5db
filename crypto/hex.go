// Package crypto implements the crypto adapter (spec.md §4.4): DES/TDES-ECB
// key handling, key parity, key-check values, and the Visa PVV/CVV and
// ISO-0 PIN block algorithms the command handlers rely on. Everything here
// sits directly on the standard library's crypto/des — see SPEC_FULL.md §3.1
// for why no third-party DES package was substituted.
package crypto

import (
	"encoding/hex"
	"errors"
)

// ErrOddHexLength is returned when a hex string has an odd number of
// characters and cannot be decoded into whole bytes.
var ErrOddHexLength = errors.New("crypto: odd-length hex string")

// HexToRaw decodes an uppercase or lowercase ASCII hex string into raw
// bytes.
func HexToRaw(s []byte) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddHexLength
	}
	raw := make([]byte, hex.DecodedLen(len(s)))
	if _, err := hex.Decode(raw, s); err != nil {
		return nil, err
	}
	return raw, nil
}

// Raw2Hex encodes raw bytes as upper-case ASCII hex, matching the case
// convention the wire protocol uses for every hex-bearing field.
func Raw2Hex(raw []byte) []byte {
	dst := make([]byte, hex.EncodedLen(len(raw)))
	hex.Encode(dst, raw)
	for i, b := range dst {
		if b >= 'a' && b <= 'f' {
			dst[i] = b - ('a' - 'A')
		}
	}
	return dst
}

// isHexDigit reports whether b is a valid hex nibble character.
func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

// stripSchemePrefix removes a leading key-scheme letter (U, T, X, S — none
// of which are valid hex digits) from a keyed field, if present.
func stripSchemePrefix(field []byte) []byte {
	if len(field) > 0 && !isHexDigit(field[0]) {
		return field[1:]
	}
	return field
}

// StripSchemePrefix is the exported form of stripSchemePrefix, for callers
// (handlers) that need to hex-decode a keyed field themselves instead of
// going through DecryptEncryptedKey — e.g. BU, which checks a key value
// directly rather than after LMK decryption.
func StripSchemePrefix(field []byte) []byte {
	return stripSchemePrefix(field)
}

package crypto

import (
	"crypto/des"
	"errors"
)

// ErrInvalidKeyLength is returned when a raw key is not a valid DES/TDES
// key length (8, 16, or 24 bytes).
var ErrInvalidKeyLength = errors.New("crypto: key must be 8, 16, or 24 raw bytes")

// extendDoubleToTripleKey extends a double-length (16-byte) key into the
// 24-byte form crypto/des.NewTripleDESCipher requires, by repeating the
// first 8 bytes as the third component (K1, K2, K1). Single-length
// (8-byte) and already-triple-length (24-byte) keys pass through, the
// former duplicated into K1, K1, K1 so ECB still round-trips a lone
// 8-byte block.
func extendDoubleToTripleKey(key []byte) ([]byte, error) {
	switch len(key) {
	case 8:
		out := make([]byte, 0, 24)
		out = append(out, key...)
		out = append(out, key...)
		out = append(out, key...)
		return out, nil
	case 16:
		out := make([]byte, 0, 24)
		out = append(out, key...)
		out = append(out, key[:8]...)
		return out, nil
	case 24:
		return key, nil
	default:
		return nil, ErrInvalidKeyLength
	}
}

// TDESCipher wraps a DES/TDES key for ECB operation, the mode Thales host
// commands use throughout (no chaining, no IV).
type TDESCipher struct {
	block cipherBlock
}

// cipherBlock is the subset of cipher.Block ECB needs.
type cipherBlock interface {
	BlockSize() int
	Encrypt(dst, src []byte)
	Decrypt(dst, src []byte)
}

// NewTDESCipher builds a TDESCipher from a raw 8, 16, or 24-byte key.
func NewTDESCipher(key []byte) (*TDESCipher, error) {
	full, err := extendDoubleToTripleKey(key)
	if err != nil {
		return nil, err
	}
	block, err := des.NewTripleDESCipher(full)
	if err != nil {
		return nil, err
	}
	return &TDESCipher{block: block}, nil
}

// EncryptECB encrypts data (which must be a whole multiple of the 8-byte
// block size) one block at a time, independently, per ECB.
func (c *TDESCipher) EncryptECB(data []byte) ([]byte, error) {
	return c.crypt(data, true)
}

// DecryptECB is the inverse of EncryptECB.
func (c *TDESCipher) DecryptECB(data []byte) ([]byte, error) {
	return c.crypt(data, false)
}

var errBlockAlignment = errors.New("crypto: data is not a whole number of 8-byte blocks")

func (c *TDESCipher) crypt(data []byte, encrypt bool) ([]byte, error) {
	bs := c.block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return nil, errBlockAlignment
	}
	out := make([]byte, len(data))
	for off := 0; off < len(data); off += bs {
		if encrypt {
			c.block.Encrypt(out[off:off+bs], data[off:off+bs])
		} else {
			c.block.Decrypt(out[off:off+bs], data[off:off+bs])
		}
	}
	return out, nil
}

// LMK is the Local Master Key: every working key exchanged with the host
// is encrypted under it before it ever reaches the wire.
type LMK struct {
	cipher *TDESCipher
	clear  []byte
}

// NewLMK builds an LMK from its raw, clear 16-byte double-length value.
func NewLMK(clear []byte) (*LMK, error) {
	if len(clear) != 16 {
		return nil, ErrInvalidKeyLength
	}
	c, err := NewTDESCipher(clear)
	if err != nil {
		return nil, err
	}
	return &LMK{cipher: c, clear: clear}, nil
}

// DecryptEncryptedKey decrypts a wire-format keyed field under the LMK.
// The field may carry a leading scheme-letter prefix (U/T/X/S), which is
// stripped before hex-decoding; the remaining hex decodes to 8, 16, or 24
// raw bytes and is ECB-decrypted under the LMK block-by-block. It returns
// the clear key bytes, the same length as the ciphertext.
func (l *LMK) DecryptEncryptedKey(field []byte) ([]byte, error) {
	raw, err := HexToRaw(stripSchemePrefix(field))
	if err != nil {
		return nil, err
	}
	return l.cipher.DecryptECB(raw)
}

// EncryptKeyRaw encrypts a clear key (8, 16, or 24 raw bytes) under the
// LMK and returns the raw ciphertext bytes.
func (l *LMK) EncryptKeyRaw(clear []byte) ([]byte, error) {
	return l.cipher.EncryptECB(clear)
}

// EncryptKey encrypts a clear key under the LMK and returns it as
// upper-case ASCII hex, ready to prefix with a scheme letter for the wire.
func (l *LMK) EncryptKey(clear []byte) ([]byte, error) {
	enc, err := l.EncryptKeyRaw(clear)
	if err != nil {
		return nil, err
	}
	return Raw2Hex(enc), nil
}

// DecryptUnder decrypts a wire-format keyed field under an arbitrary clear
// key rather than the LMK — used where one working key wraps another, as
// when FA unwraps a ZPK under a clear ZMK.
func DecryptUnder(clearKey, field []byte) ([]byte, error) {
	c, err := NewTDESCipher(clearKey)
	if err != nil {
		return nil, err
	}
	raw, err := HexToRaw(stripSchemePrefix(field))
	if err != nil {
		return nil, err
	}
	return c.DecryptECB(raw)
}

// CheckValue returns the key check value for the LMK itself: the leftmost
// n hex characters of an all-zero block encrypted under the LMK.
func (l *LMK) CheckValue(hexDigits int) (string, error) {
	return KCV(l.clear, hexDigits)
}

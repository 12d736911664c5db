package crypto

import "errors"

// ErrInvalidPinBlock is returned when a decrypted PIN block does not carry
// a recognized format nibble or has a PIN length outside the valid range.
var ErrInvalidPinBlock = errors.New("crypto: invalid PIN block format or length")

// ClearPin recovers the clear PIN digits from an ISO-0 (ANSI X9.8) PIN
// block. pinBlock is the 16 hex-character decrypted PIN block; account is
// the 12-digit account number field as carried on the wire (already the
// rightmost 12 digits of the PAN, excluding the check digit).
func ClearPin(pinBlock, account []byte) (string, error) {
	if len(pinBlock) != 16 {
		return "", ErrInvalidPinBlock
	}
	if len(account) != 12 {
		return "", ErrInvalidPinBlock
	}

	blockRaw, err := HexToRaw(pinBlock)
	if err != nil {
		return "", ErrInvalidPinBlock
	}

	accountField := append([]byte("0000"), account...)
	accountRaw, err := HexToRaw(accountField)
	if err != nil {
		return "", ErrInvalidPinBlock
	}

	clear := make([]byte, 8)
	for i := range clear {
		clear[i] = blockRaw[i] ^ accountRaw[i]
	}
	clearHex := Raw2Hex(clear)

	if clearHex[0] != '0' {
		return "", ErrInvalidPinBlock
	}
	length := hexNibbleValue(clearHex[1])
	if length < 4 || length > 12 {
		return "", ErrInvalidPinBlock
	}

	pin := clearHex[2 : 2+length]
	for _, d := range pin {
		if d < '0' || d > '9' {
			return "", ErrInvalidPinBlock
		}
	}
	return string(pin), nil
}

// BuildPinBlock constructs the clear ISO-0 PIN block for a given PIN and
// account number, the inverse of the XOR step ClearPin performs. Used by
// tests and by any handler that needs to re-derive a PIN block.
func BuildPinBlock(pin, account []byte) ([]byte, error) {
	if len(pin) < 4 || len(pin) > 12 {
		return nil, ErrInvalidPinBlock
	}
	if len(account) != 12 {
		return nil, ErrInvalidPinBlock
	}

	block1Hex := make([]byte, 0, 16)
	block1Hex = append(block1Hex, '0')
	block1Hex = append(block1Hex, hexNibbleDigit(len(pin))...)
	block1Hex = append(block1Hex, pin...)
	for len(block1Hex) < 16 {
		block1Hex = append(block1Hex, 'F')
	}

	block1Raw, err := HexToRaw(block1Hex)
	if err != nil {
		return nil, err
	}

	accountField := append([]byte("0000"), account...)
	accountRaw, err := HexToRaw(accountField)
	if err != nil {
		return nil, err
	}

	clear := make([]byte, 8)
	for i := range clear {
		clear[i] = block1Raw[i] ^ accountRaw[i]
	}
	return Raw2Hex(clear), nil
}

func hexNibbleValue(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}

func hexNibbleDigit(n int) []byte {
	const digits = "0123456789ABCDEF"
	return []byte{digits[n&0xF]}
}

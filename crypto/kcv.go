package crypto

// zeroBlock is the all-zero 8-byte plaintext every Thales key check value
// is computed from.
var zeroBlock = make([]byte, 8)

// KCV returns the key check value for a raw clear key: encrypt an
// all-zero block under the key and take the leftmost hexDigits characters
// of the upper-case hex encoding (conventionally 6).
func KCV(clearKey []byte, hexDigits int) (string, error) {
	c, err := NewTDESCipher(clearKey)
	if err != nil {
		return "", err
	}
	enc, err := c.EncryptECB(zeroBlock)
	if err != nil {
		return "", err
	}
	full := Raw2Hex(enc)
	if hexDigits > len(full) {
		hexDigits = len(full)
	}
	return string(full[:hexDigits]), nil
}

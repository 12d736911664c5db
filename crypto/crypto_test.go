package crypto

import (
	"bytes"
	"testing"
)

func TestTDESRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		key  []byte
	}{
		{"single-length", bytes.Repeat([]byte{0x11}, 8)},
		{"double-length", bytes.Repeat([]byte{0x22}, 16)},
		{"triple-length", bytes.Repeat([]byte{0x33}, 24)},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewTDESCipher(tc.key)
			if err != nil {
				t.Fatalf("NewTDESCipher: %v", err)
			}
			plain := []byte("ABCDEFGH")
			enc, err := c.EncryptECB(plain)
			if err != nil {
				t.Fatalf("EncryptECB: %v", err)
			}
			dec, err := c.DecryptECB(enc)
			if err != nil {
				t.Fatalf("DecryptECB: %v", err)
			}
			if !bytes.Equal(dec, plain) {
				t.Errorf("round trip = %q, want %q", dec, plain)
			}
		})
	}
}

func TestLMKDecryptEncryptedKeyRoundTrip(t *testing.T) {
	t.Parallel()

	lmk, err := NewLMK(bytes.Repeat([]byte{0xAB}, 16))
	if err != nil {
		t.Fatalf("NewLMK: %v", err)
	}

	clearKey := ModifyKeyParity(bytes.Repeat([]byte{0x5A}, 16))
	encHex, err := lmk.EncryptKey(clearKey)
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	field := append([]byte("U"), encHex...)
	gotClear, err := lmk.DecryptEncryptedKey(field)
	if err != nil {
		t.Fatalf("DecryptEncryptedKey: %v", err)
	}
	if !bytes.Equal(gotClear, clearKey) {
		t.Errorf("clear key = %x, want %x", gotClear, clearKey)
	}
}

func TestLMKDecryptEncryptedKeySingleLength(t *testing.T) {
	t.Parallel()

	lmk, err := NewLMK(bytes.Repeat([]byte{0xCD}, 16))
	if err != nil {
		t.Fatalf("NewLMK: %v", err)
	}

	clearKey := ModifyKeyParity([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	encHex, err := lmk.EncryptKey(clearKey)
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	gotClear, err := lmk.DecryptEncryptedKey(encHex) // no scheme prefix
	if err != nil {
		t.Fatalf("DecryptEncryptedKey: %v", err)
	}
	if !bytes.Equal(gotClear, clearKey) {
		t.Errorf("clear key = %x, want %x", gotClear, clearKey)
	}
}

func TestCheckAndModifyKeyParity(t *testing.T) {
	t.Parallel()

	raw := []byte{0x00, 0xFF, 0x10, 0x55}
	if CheckKeyParity(raw) {
		t.Fatalf("expected raw bytes to fail parity before adjustment")
	}

	adjusted := ModifyKeyParity(raw)
	if !CheckKeyParity(adjusted) {
		t.Errorf("adjusted bytes %x still fail parity", adjusted)
	}
}

func TestKCV(t *testing.T) {
	t.Parallel()

	key := ModifyKeyParity(bytes.Repeat([]byte{0x01}, 16))
	kcv, err := KCV(key, 6)
	if err != nil {
		t.Fatalf("KCV: %v", err)
	}
	if len(kcv) != 6 {
		t.Errorf("KCV length = %d, want 6", len(kcv))
	}
	for _, c := range kcv {
		if !isHexDigit(byte(c)) {
			t.Errorf("KCV %q contains non-hex character", kcv)
		}
	}
}

func TestClearPinRoundTrip(t *testing.T) {
	t.Parallel()

	account := []byte("123456789012")
	pin := []byte("1234")

	block, err := BuildPinBlock(pin, account)
	if err != nil {
		t.Fatalf("BuildPinBlock: %v", err)
	}

	got, err := ClearPin(block, account)
	if err != nil {
		t.Fatalf("ClearPin: %v", err)
	}
	if got != string(pin) {
		t.Errorf("ClearPin = %q, want %q", got, pin)
	}
}

func TestClearPinInvalidLength(t *testing.T) {
	t.Parallel()

	account := []byte("123456789012")
	// format nibble '0', length nibble 'F' (15) — out of the valid 4-12 range.
	block := []byte("0F23456789ABCDEF")
	if _, err := ClearPin(block, account); err != ErrInvalidPinBlock {
		t.Errorf("err = %v, want ErrInvalidPinBlock", err)
	}
}

func TestVisaPVVLength(t *testing.T) {
	t.Parallel()

	pvk := ModifyKeyParity(bytes.Repeat([]byte{0x44}, 16))
	pvv, err := VisaPVV([]byte("123456789012"), []byte("1"), []byte("1234"), pvk)
	if err != nil {
		t.Fatalf("VisaPVV: %v", err)
	}
	if len(pvv) != 4 {
		t.Errorf("PVV length = %d, want 4", len(pvv))
	}
	for _, c := range pvv {
		if c < '0' || c > '9' {
			t.Errorf("PVV %q contains non-decimal character", pvv)
		}
	}
}

func TestVisaCVVLength(t *testing.T) {
	t.Parallel()

	cvk := ModifyKeyParity(bytes.Repeat([]byte{0x77}, 16))
	cvv, err := VisaCVV([]byte("4111111111111111"), []byte("2512"), []byte("123"), cvk)
	if err != nil {
		t.Fatalf("VisaCVV: %v", err)
	}
	if len(cvv) != 3 {
		t.Errorf("CVV length = %d, want 3", len(cvv))
	}
	for _, c := range cvv {
		if c < '0' || c > '9' {
			t.Errorf("CVV %q contains non-decimal character", cvv)
		}
	}
}

func TestVisaCVVDeterministic(t *testing.T) {
	t.Parallel()

	cvk := ModifyKeyParity(bytes.Repeat([]byte{0x99}, 16))
	cvv1, err := VisaCVV([]byte("4111111111111111"), []byte("2512"), []byte("123"), cvk)
	if err != nil {
		t.Fatalf("VisaCVV: %v", err)
	}
	cvv2, err := VisaCVV([]byte("4111111111111111"), []byte("2512"), []byte("123"), cvk)
	if err != nil {
		t.Fatalf("VisaCVV: %v", err)
	}
	if cvv1 != cvv2 {
		t.Errorf("VisaCVV not deterministic: %q vs %q", cvv1, cvv2)
	}
}

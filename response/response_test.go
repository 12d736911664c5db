package response

import (
	"bytes"
	"testing"
)

func TestBuilderFieldOrder(t *testing.T) {
	t.Parallel()

	frame := NewBuilder([]byte("HDR1")).
		SetResponseCode("ND").
		SetErrorCode("00").
		Set("LMK Check Value", []byte("0123456789ABCDEF")).
		Build()

	// be16(len) || HDR1 || ND || 00 || LMK CV
	wantBody := []byte("ND00" + "0123456789ABCDEF")
	wantLen := len("HDR1") + len(wantBody)

	if int(frame[0])<<8|int(frame[1]) != wantLen {
		t.Fatalf("length prefix = %d, want %d", int(frame[0])<<8|int(frame[1]), wantLen)
	}
	if !bytes.Equal(frame[2:6], []byte("HDR1")) {
		t.Fatalf("header = %q", frame[2:6])
	}
	if !bytes.Equal(frame[6:], wantBody) {
		t.Fatalf("body = %q, want %q", frame[6:], wantBody)
	}
}

func TestBuilderEmptyFields(t *testing.T) {
	t.Parallel()

	frame := NewBuilder(nil).SetResponseCode("ZZ").SetErrorCode("00").Build()
	if !bytes.Equal(frame, []byte{0x00, 0x04, 'Z', 'Z', '0', '0'}) {
		t.Fatalf("frame = %x", frame)
	}
}

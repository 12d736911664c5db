package session

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yawning/hsm-sim/crypto"
	"github.com/yawning/hsm-sim/framing"
	"github.com/yawning/hsm-sim/handlers"
)

// scenarioLMK is the literal LMK value spec.md §8's end-to-end scenarios
// are defined against.
func scenarioLMK(t *testing.T) *crypto.LMK {
	t.Helper()
	clear, err := crypto.HexToRaw([]byte("deafbeedeafbeedeafbeedeafbeedeaf"))
	if err != nil {
		t.Fatalf("HexToRaw: %v", err)
	}
	lmk, err := crypto.NewLMK(clear)
	if err != nil {
		t.Fatalf("NewLMK: %v", err)
	}
	return lmk
}

// roundTrip writes one frame to the session under test and reads back its
// response, returning the response code and error code.
func roundTrip(t *testing.T, ctx *handlers.Context, header, code, body []byte) (string, string) {
	t.Helper()

	client, server := net.Pipe()
	defer client.Close()

	pool := NewPool(2, ctx, zerolog.Nop())
	defer pool.Close()

	done := make(chan struct{})
	go func() {
		serveConn(server, pool, zerolog.Nop())
		close(done)
	}()

	payload := append(append([]byte{}, code...), body...)
	if err := framing.WriteFrame(client, header, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := framing.ReadFrame(client)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	gotHeader, respCode, respBody, err := framing.SplitFrame(frame)
	if err != nil {
		t.Fatalf("SplitFrame: %v", err)
	}
	if !bytes.Equal(gotHeader, header) {
		t.Errorf("header = %q, want %q", gotHeader, header)
	}
	if len(respBody) < 2 {
		t.Fatalf("response body too short: %q", respBody)
	}

	client.Close()
	<-done

	return string(respCode), string(respBody[:2])
}

// S1: NC -> ND/00.
func TestScenarioS1Diagnostics(t *testing.T) {
	t.Parallel()
	ctx := &handlers.Context{LMK: scenarioLMK(t), Log: zerolog.Nop()}
	respCode, errCode := roundTrip(t, ctx, []byte("HDR1"), []byte("NC"), nil)
	if respCode != "ND" || errCode != "00" {
		t.Errorf("S1: response = %s/%s, want ND/00", respCode, errCode)
	}
}

// S2: unknown code XX -> ZZ/00.
func TestScenarioS2UnknownCode(t *testing.T) {
	t.Parallel()
	ctx := &handlers.Context{LMK: scenarioLMK(t), Log: zerolog.Nop()}
	respCode, errCode := roundTrip(t, ctx, []byte("HDR1"), []byte("XX"), []byte("anything"))
	if respCode != "ZZ" || errCode != "00" {
		t.Errorf("S2: response = %s/%s, want ZZ/00", respCode, errCode)
	}
}

// S3: BU with a U-prefixed 32-hex key -> BV/00.
func TestScenarioS3GenerateKCV(t *testing.T) {
	t.Parallel()
	ctx := &handlers.Context{LMK: scenarioLMK(t), Log: zerolog.Nop()}

	var body []byte
	body = append(body, "00"...)
	body = append(body, "0"...)
	body = append(body, 'U')
	body = append(body, bytes.Repeat([]byte("A"), 32)...)

	respCode, errCode := roundTrip(t, ctx, []byte("HDR1"), []byte("BU"), body)
	if respCode != "BV" || errCode != "00" {
		t.Errorf("S3: response = %s/%s, want BV/00", respCode, errCode)
	}
}

// S4: CY with a tampered CVV -> CZ/01.
func TestScenarioS4TamperedCVV(t *testing.T) {
	t.Parallel()
	ctx := &handlers.Context{LMK: scenarioLMK(t), Log: zerolog.Nop()}

	clearCVK := crypto.ModifyKeyParity(bytes.Repeat([]byte{0x42}, 16))
	cvkHex, err := ctx.LMK.EncryptKey(clearCVK)
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	var body []byte
	body = append(body, 'U')
	body = append(body, cvkHex...)
	body = append(body, "999"...) // tampered — almost certainly wrong
	body = append(body, "4111111111111111"...)
	body = append(body, ';')
	body = append(body, "2512123"...)

	respCode, errCode := roundTrip(t, ctx, []byte("HDR1"), []byte("CY"), body)
	if respCode != "CZ" || errCode != "01" {
		t.Errorf("S4: response = %s/%s, want CZ/01", respCode, errCode)
	}
}

// S5: DC with a PVK of length 32 that fails parity -> DD/10 or DD/11.
func TestScenarioS5BadPVKParity(t *testing.T) {
	t.Parallel()
	ctx := &handlers.Context{LMK: scenarioLMK(t), Log: zerolog.Nop()}

	clearTPK := crypto.ModifyKeyParity(bytes.Repeat([]byte{0x11}, 16))
	badPVK := bytes.Repeat([]byte{0x00}, 16)
	tpkHex, err := ctx.LMK.EncryptKey(clearTPK)
	if err != nil {
		t.Fatalf("EncryptKey TPK: %v", err)
	}
	pvkHex, err := ctx.LMK.EncryptKey(badPVK)
	if err != nil {
		t.Fatalf("EncryptKey PVK: %v", err)
	}

	var body []byte
	body = append(body, 'U')
	body = append(body, tpkHex...)
	body = append(body, 'U')
	body = append(body, pvkHex...)
	body = append(body, bytes.Repeat([]byte("0"), 16)...)
	body = append(body, "01"...)
	body = append(body, "123456789012"...)
	body = append(body, "1"...)
	body = append(body, "0000"...)

	respCode, errCode := roundTrip(t, ctx, []byte("HDR1"), []byte("DC"), body)
	if respCode != "DD" || (errCode != "10" && errCode != "11") {
		t.Errorf("S5: response = %s/%s, want DD/10 or DD/11", respCode, errCode)
	}
}

// S6: same as S5, but with approve-all set -> DD/00.
func TestScenarioS6ApproveAllOverridesParity(t *testing.T) {
	t.Parallel()
	ctx := &handlers.Context{LMK: scenarioLMK(t), Flags: handlers.Flags{ApproveAll: true}, Log: zerolog.Nop()}

	clearTPK := crypto.ModifyKeyParity(bytes.Repeat([]byte{0x11}, 16))
	badPVK := bytes.Repeat([]byte{0x00}, 16)
	tpkHex, err := ctx.LMK.EncryptKey(clearTPK)
	if err != nil {
		t.Fatalf("EncryptKey TPK: %v", err)
	}
	pvkHex, err := ctx.LMK.EncryptKey(badPVK)
	if err != nil {
		t.Fatalf("EncryptKey PVK: %v", err)
	}

	var body []byte
	body = append(body, 'U')
	body = append(body, tpkHex...)
	body = append(body, 'U')
	body = append(body, pvkHex...)
	body = append(body, bytes.Repeat([]byte("0"), 16)...)
	body = append(body, "01"...)
	body = append(body, "123456789012"...)
	body = append(body, "1"...)
	body = append(body, "0000"...)

	respCode, errCode := roundTrip(t, ctx, []byte("HDR1"), []byte("DC"), body)
	if respCode != "DD" || errCode != "00" {
		t.Errorf("S6: response = %s/%s, want DD/00 under approve-all", respCode, errCode)
	}
}

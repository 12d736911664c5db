package handlers

import (
	"github.com/yawning/hsm-sim/crypto"
	"github.com/yawning/hsm-sim/errorcodes"
	"github.com/yawning/hsm-sim/request"
)

// DC verifies a PIN under a TPK/PVK pair (spec.md §4.5).
func DC(ctx *Context, header []byte, req *request.Request) []byte {
	return verifyPin(ctx, header, req, "TPK", "DD")
}

// EC verifies a PIN under a ZPK/PVK pair (the ABA-PVV variant). Identical
// in shape to DC save for which field names the terminal key.
func EC(ctx *Context, header []byte, req *request.Request) []byte {
	return verifyPin(ctx, header, req, "ZPK", "ED")
}

// verifyPin implements the shared DC/EC semantics: decrypt the PIN block
// under the terminal key, recover the clear PIN via the account number,
// recompute the Visa PVV, and compare it to the one supplied.
func verifyPin(ctx *Context, header []byte, req *request.Request, keyField, responseCode string) []byte {
	clearTerminalKey, code := decryptAndCheckParity(ctx, req.Get(keyField), errorcodes.Err10.Code())
	if code != errorcodes.Err00.Code() {
		return buildSimple(header, responseCode, code)
	}

	pvkField := req.Get("PVK Pair")
	if len(crypto.StripSchemePrefix(pvkField)) != 32 {
		return buildSimple(header, responseCode, ctx.code(errorcodes.Err27.Code()))
	}

	_, code = decryptAndCheckParity(ctx, pvkField, errorcodes.Err11.Code())
	if code != errorcodes.Err00.Code() {
		return buildSimple(header, responseCode, code)
	}
	rawPVK, err := crypto.HexToRaw(crypto.StripSchemePrefix(pvkField))
	if err != nil {
		return buildSimple(header, responseCode, errorcodes.Err01.Code())
	}

	raw, err := crypto.HexToRaw(req.Get("PIN block"))
	if err != nil {
		return buildSimple(header, responseCode, errorcodes.Err01.Code())
	}
	cipher, err := crypto.NewTDESCipher(clearTerminalKey)
	if err != nil {
		return buildSimple(header, responseCode, errorcodes.Err01.Code())
	}
	decBlock, err := cipher.DecryptECB(raw)
	if err != nil {
		return buildSimple(header, responseCode, errorcodes.Err01.Code())
	}

	pin, err := crypto.ClearPin(crypto.Raw2Hex(decBlock), req.Get("Account Number"))
	if err != nil {
		return buildSimple(header, responseCode, ctx.code(errorcodes.Err01.Code()))
	}

	pvv, err := crypto.VisaPVV(req.Get("Account Number"), req.Get("PVKI"), []byte(pin), rawPVK)
	if err != nil || pvv != string(req.Get("PVV")) {
		return buildSimple(header, responseCode, ctx.code(errorcodes.Err01.Code()))
	}

	return buildSimple(header, responseCode, errorcodes.Err00.Code())
}

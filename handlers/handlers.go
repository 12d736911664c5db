package handlers

import (
	"github.com/yawning/hsm-sim/crypto"
	"github.com/yawning/hsm-sim/csrand"
	"github.com/yawning/hsm-sim/errorcodes"
	"github.com/yawning/hsm-sim/request"
	"github.com/yawning/hsm-sim/response"
)

// A0 generates a random, parity-adjusted working key and returns it
// encrypted under the LMK, optionally also under a caller-supplied ZMK/TMK.
func A0(ctx *Context, header []byte, req *request.Request) []byte {
	newKey, err := csrand.Key(16)
	if err != nil {
		return buildSimple(header, "A1", errorcodes.Err01.Code())
	}
	newKey = crypto.ModifyKeyParity(newKey)

	lmkEnc, err := ctx.LMK.EncryptKey(newKey)
	if err != nil {
		return buildSimple(header, "A1", errorcodes.Err01.Code())
	}

	b := response.NewBuilder(header).
		SetResponseCode("A1").
		SetErrorCode(errorcodes.Err00.Code()).
		Set("Key under LMK", withU(lmkEnc))

	if zmkField := req.Get("ZMK/TMK"); zmkField != nil {
		clearZMK, err := ctx.LMK.DecryptEncryptedKey(zmkField)
		if err != nil {
			return buildSimple(header, "A1", errorcodes.Err01.Code())
		}
		cipher, err := crypto.NewTDESCipher(clearZMK)
		if err != nil {
			return buildSimple(header, "A1", errorcodes.Err01.Code())
		}
		underZMK, err := cipher.EncryptECB(newKey)
		if err != nil {
			return buildSimple(header, "A1", errorcodes.Err01.Code())
		}
		kcv, err := crypto.KCV(newKey, 6)
		if err != nil {
			return buildSimple(header, "A1", errorcodes.Err01.Code())
		}
		b.Set("Key under ZMK", withU(crypto.Raw2Hex(underZMK))).
			Set("Key Check Value", []byte(kcv))
	}

	return b.Build()
}

// BU computes the key check value of a caller-supplied key directly — no
// LMK decryption, the key value is used as-is once its scheme prefix is
// stripped.
func BU(ctx *Context, header []byte, req *request.Request) []byte {
	key := req.Get("Key")
	if key == nil {
		return buildSimple(header, "BV", errorcodes.Err01.Code())
	}
	raw, err := crypto.HexToRaw(crypto.StripSchemePrefix(key))
	if err != nil {
		return buildSimple(header, "BV", errorcodes.Err01.Code())
	}
	kcv, err := crypto.KCV(raw, 16)
	if err != nil {
		return buildSimple(header, "BV", errorcodes.Err01.Code())
	}
	return response.NewBuilder(header).
		SetResponseCode("BV").
		SetErrorCode(errorcodes.Err00.Code()).
		Set("Key Check Value", []byte(kcv)).
		Build()
}

// CA translates a PIN block from under a TPK to under a destination key.
func CA(ctx *Context, header []byte, req *request.Request) []byte {
	srcFmt := req.Get("Source PIN block format")
	dstFmt := req.Get("Destination PIN block format")
	if string(srcFmt) != "01" || string(dstFmt) != "01" {
		return buildSimple(header, "CB", ctx.code(errorcodes.Err05.Code()))
	}

	clearTPK, err := ctx.LMK.DecryptEncryptedKey(req.Get("TPK"))
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}
	if code := ctx.parityCode(clearTPK, errorcodes.Err10.Code()); code != errorcodes.Err00.Code() {
		return buildSimple(header, "CB", code)
	}

	clearDst, err := ctx.LMK.DecryptEncryptedKey(req.Get("Destination Key"))
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}
	if code := ctx.parityCode(clearDst, errorcodes.Err11.Code()); code != errorcodes.Err00.Code() {
		return buildSimple(header, "CB", code)
	}

	srcRaw, err := crypto.HexToRaw(req.Get("Source PIN block"))
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}
	srcCipher, err := crypto.NewTDESCipher(clearTPK)
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}
	decBlock, err := srcCipher.DecryptECB(srcRaw)
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}
	decBlockHex := crypto.Raw2Hex(decBlock)

	rawDst, err := crypto.HexToRaw(crypto.StripSchemePrefix(req.Get("Destination Key")))
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}
	dstCipher, err := crypto.NewTDESCipher(rawDst)
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}
	encBlock, err := dstCipher.EncryptECB(decBlock)
	if err != nil {
		return buildSimple(header, "CB", errorcodes.Err01.Code())
	}

	return response.NewBuilder(header).
		SetResponseCode("CB").
		SetErrorCode(errorcodes.Err00.Code()).
		Set("PIN Length", decBlockHex[:2]).
		Set("Destination PIN Block", crypto.Raw2Hex(encBlock)).
		Set("Destination PIN Block format", dstFmt).
		Build()
}

// CW computes a Visa CVV over the supplied card data under a CVK.
func CW(ctx *Context, header []byte, req *request.Request) []byte {
	_, code := decryptAndCheckParity(ctx, req.Get("CVK"), errorcodes.Err10.Code())
	if code != errorcodes.Err00.Code() {
		return buildSimple(header, "CX", code)
	}

	rawCVK, err := crypto.HexToRaw(crypto.StripSchemePrefix(req.Get("CVK")))
	if err != nil {
		return buildSimple(header, "CX", errorcodes.Err01.Code())
	}

	cvv, err := crypto.VisaCVV(req.Get("Primary Account Number"), req.Get("Expiration Date"), req.Get("Service Code"), rawCVK)
	if err != nil {
		return buildSimple(header, "CX", errorcodes.Err01.Code())
	}

	return response.NewBuilder(header).
		SetResponseCode("CX").
		SetErrorCode(errorcodes.Err00.Code()).
		Set("CVV", []byte(cvv)).
		Build()
}

// CY verifies a caller-supplied Visa CVV against the recomputed value.
func CY(ctx *Context, header []byte, req *request.Request) []byte {
	_, code := decryptAndCheckParity(ctx, req.Get("CVK"), errorcodes.Err10.Code())
	if code != errorcodes.Err00.Code() {
		return buildSimple(header, "CZ", code)
	}

	rawCVK, err := crypto.HexToRaw(crypto.StripSchemePrefix(req.Get("CVK")))
	if err != nil {
		return buildSimple(header, "CZ", errorcodes.Err01.Code())
	}

	cvv, err := crypto.VisaCVV(req.Get("Primary Account Number"), req.Get("Expiration Date"), req.Get("Service Code"), rawCVK)
	if err != nil || cvv != string(req.Get("CVV")) {
		return buildSimple(header, "CZ", ctx.code(errorcodes.Err01.Code()))
	}

	return buildSimple(header, "CZ", errorcodes.Err00.Code())
}

// FA unwraps a ZPK from under a ZMK and rewraps it under the LMK.
func FA(ctx *Context, header []byte, req *request.Request) []byte {
	zmkField := req.Get("ZMK")
	zpkField := req.Get("ZPK")
	if zmkField == nil || zpkField == nil {
		return buildSimple(header, "FB", errorcodes.Err01.Code())
	}

	clearZMK, err := ctx.LMK.DecryptEncryptedKey(zmkField)
	if err != nil {
		return buildSimple(header, "FB", errorcodes.Err01.Code())
	}

	clearZPK, err := crypto.DecryptUnder(clearZMK, zpkField)
	if err != nil {
		return buildSimple(header, "FB", errorcodes.Err01.Code())
	}

	underLMKRaw, err := ctx.LMK.EncryptKeyRaw(clearZPK)
	if err != nil {
		return buildSimple(header, "FB", errorcodes.Err01.Code())
	}
	underLMKHex := crypto.Raw2Hex(underLMKRaw)

	kcv, err := crypto.KCV(underLMKRaw, 6)
	if err != nil {
		return buildSimple(header, "FB", errorcodes.Err01.Code())
	}

	return response.NewBuilder(header).
		SetResponseCode("FB").
		SetErrorCode(errorcodes.Err00.Code()).
		Set("ZPK under LMK", withU(underLMKHex)).
		Set("Key Check Value", []byte(kcv)).
		Build()
}

// HC generates a new key and returns it wrapped under both the caller's
// current key and the LMK.
func HC(ctx *Context, header []byte, req *request.Request) []byte {
	newKey, err := csrand.Key(16)
	if err != nil {
		return buildSimple(header, "HD", errorcodes.Err01.Code())
	}
	newKey = crypto.ModifyKeyParity(newKey)

	clearCurrent, err := ctx.LMK.DecryptEncryptedKey(req.Get("Current Key"))
	if err != nil {
		return buildSimple(header, "HD", errorcodes.Err01.Code())
	}

	curCipher, err := crypto.NewTDESCipher(clearCurrent)
	if err != nil {
		return buildSimple(header, "HD", errorcodes.Err01.Code())
	}
	underCurrent, err := curCipher.EncryptECB(newKey)
	if err != nil {
		return buildSimple(header, "HD", errorcodes.Err01.Code())
	}

	underLMKHex, err := ctx.LMK.EncryptKey(newKey)
	if err != nil {
		return buildSimple(header, "HD", errorcodes.Err01.Code())
	}

	return response.NewBuilder(header).
		SetResponseCode("HD").
		SetErrorCode(errorcodes.Err00.Code()).
		Set("New key under the current key", withU(crypto.Raw2Hex(underCurrent))).
		Set("New key under LMK", withU(underLMKHex)).
		Build()
}

// NC reports the LMK's check value and a fixed firmware version string.
func NC(ctx *Context, header []byte, req *request.Request) []byte {
	kcv, err := ctx.LMK.CheckValue(16)
	if err != nil {
		return buildSimple(header, "ND", errorcodes.Err01.Code())
	}
	return response.NewBuilder(header).
		SetResponseCode("ND").
		SetErrorCode(errorcodes.Err00.Code()).
		Set("LMK Check Value", []byte(kcv)).
		Set("Firmware Version", []byte("0007-E000")).
		Build()
}

// Unknown handles any command code not present in the dispatch table: a
// ZZ response with error 00, a behavioural quirk of the simulator kept
// for wire compatibility (spec.md §4.5, §9).
func Unknown(header []byte) []byte {
	return buildSimple(header, "ZZ", errorcodes.Err00.Code())
}

// decryptAndCheckParity decrypts a keyed field under the LMK and reports
// the parity-check error code to use, collapsing decode failures into "01"
// so callers only need to branch on whether code == "00".
func decryptAndCheckParity(ctx *Context, field []byte, failCode string) ([]byte, string) {
	clear, err := ctx.LMK.DecryptEncryptedKey(field)
	if err != nil {
		return nil, errorcodes.Err01.Code()
	}
	return clear, ctx.parityCode(clear, failCode)
}

// withU prefixes an encrypted-key hex value with the double-length scheme
// letter, the convention every handler response uses for keys it returns.
func withU(hexValue []byte) []byte {
	out := make([]byte, 0, len(hexValue)+1)
	out = append(out, 'U')
	out = append(out, hexValue...)
	return out
}

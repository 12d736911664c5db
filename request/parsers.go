package request

// Parser parses a command body into a Request. Registered per command code
// in the dispatch table (spec.md §4.6).
type Parser func(body []byte) (*Request, error)

// ParseA0 parses "Generate a key" (spec.md §4.2).
func ParseA0(body []byte) (*Request, error) {
	r := newRequest("A0")
	c := &cursor{data: body}

	mode, err := c.take(1)
	if err != nil {
		return nil, err
	}
	r.set("Mode", mode)

	keyType, err := c.take(3)
	if err != nil {
		return nil, err
	}
	r.set("Key Type", keyType)

	keyScheme, err := c.take(1)
	if err != nil {
		return nil, err
	}
	r.set("Key Scheme", keyScheme)

	if mode[0] == '1' {
		if b, ok := c.peek(); ok && b == ';' {
			if _, err := c.take(1); err != nil {
				return nil, err
			}
			flag, err := c.take(1)
			if err != nil {
				return nil, err
			}
			r.set("ZMK/TMK Flag", flag)
		}

		if b, ok := c.peek(); ok && b == 'U' {
			zmk, err := c.take(33)
			if err != nil {
				return nil, err
			}
			r.set("ZMK/TMK", zmk)
		}
	}

	return r, nil
}

// ParseBU parses "Generate a KCV".
func ParseBU(body []byte) (*Request, error) {
	r := newRequest("BU")
	c := &cursor{data: body}

	keyTypeCode, err := c.take(2)
	if err != nil {
		return nil, err
	}
	r.set("Key Type Code", keyTypeCode)

	keyLengthFlag, err := c.take(1)
	if err != nil {
		return nil, err
	}
	r.set("Key Length Flag", keyLengthFlag)

	if b, ok := c.peek(); ok && b == 'U' {
		key, err := c.take(33)
		if err != nil {
			return nil, err
		}
		r.set("Key", key)
	}

	return r, nil
}

// ParseCA parses "Translate PIN from TPK to ZPK".
func ParseCA(body []byte) (*Request, error) {
	r := newRequest("CA")
	c := &cursor{data: body}

	tpkWidth := keyedFieldWidth(c, "UTS")
	tpk, err := c.take(tpkWidth)
	if err != nil {
		return nil, err
	}
	r.set("TPK", tpk)

	dstWidth := keyedFieldWidth(c, "UTS")
	dst, err := c.take(dstWidth)
	if err != nil {
		return nil, err
	}
	r.set("Destination Key", dst)

	maxPinLen, err := c.take(2)
	if err != nil {
		return nil, err
	}
	r.set("Maximum PIN Length", maxPinLen)

	srcPinBlock, err := c.take(16)
	if err != nil {
		return nil, err
	}
	r.set("Source PIN block", srcPinBlock)

	srcFmt, err := c.take(2)
	if err != nil {
		return nil, err
	}
	r.set("Source PIN block format", srcFmt)

	dstFmt, err := c.take(2)
	if err != nil {
		return nil, err
	}
	r.set("Destination PIN block format", dstFmt)

	account, err := c.take(12)
	if err != nil {
		return nil, err
	}
	r.set("Account Number", account)

	return r, nil
}

// ParseCW parses "Generate CVV".
func ParseCW(body []byte) (*Request, error) {
	r := newRequest("CW")
	c := &cursor{data: body}

	cvkWidth := keyedFieldWidth(c, "UTS")
	cvk, err := c.take(cvkWidth)
	if err != nil {
		return nil, err
	}
	r.set("CVK", cvk)

	pan, err := c.takeUntil(';')
	if err != nil {
		return nil, err
	}
	r.set("Primary Account Number", pan)

	expDate, err := c.take(4)
	if err != nil {
		return nil, err
	}
	r.set("Expiration Date", expDate)

	svcCode, err := c.take(3)
	if err != nil {
		return nil, err
	}
	r.set("Service Code", svcCode)

	return r, nil
}

// ParseCY parses "Verify CVV".
func ParseCY(body []byte) (*Request, error) {
	r := newRequest("CY")
	c := &cursor{data: body}

	cvkWidth := keyedFieldWidth(c, "UTS")
	cvk, err := c.take(cvkWidth)
	if err != nil {
		return nil, err
	}
	r.set("CVK", cvk)

	cvv, err := c.take(3)
	if err != nil {
		return nil, err
	}
	r.set("CVV", cvv)

	pan, err := c.takeUntil(';')
	if err != nil {
		return nil, err
	}
	r.set("Primary Account Number", pan)

	expDate, err := c.take(4)
	if err != nil {
		return nil, err
	}
	r.set("Expiration Date", expDate)

	svcCode, err := c.take(3)
	if err != nil {
		return nil, err
	}
	r.set("Service Code", svcCode)

	return r, nil
}

// ParseDC parses "Verify PIN" (TPK variant).
func ParseDC(body []byte) (*Request, error) {
	return parseVerifyPin("DC", "TPK", "UTS", body)
}

// ParseEC parses "Verify PIN (ABA PVV)" (ZPK variant).
func ParseEC(body []byte) (*Request, error) {
	r := newRequest("EC")
	c := &cursor{data: body}

	zpkWidth := keyedFieldWidth(c, "U")
	zpk, err := c.take(zpkWidth)
	if err != nil {
		return nil, err
	}
	r.set("ZPK", zpk)

	pvkWidth := keyedFieldWidth(c, "U")
	pvk, err := c.take(pvkWidth)
	if err != nil {
		return nil, err
	}
	r.set("PVK Pair", pvk)

	pinBlock, err := c.take(16)
	if err != nil {
		return nil, err
	}
	r.set("PIN block", pinBlock)

	format, err := c.take(2)
	if err != nil {
		return nil, err
	}
	r.set("PIN block format code", format)

	if string(format) != "04" {
		account, err := c.take(12)
		if err != nil {
			return nil, err
		}
		r.set("Account Number", account)
	} else {
		token, err := c.take(18)
		if err != nil {
			return nil, err
		}
		r.set("Token", token)
	}

	pvki, err := c.take(1)
	if err != nil {
		return nil, err
	}
	r.set("PVKI", pvki)

	pvv, err := c.take(4)
	if err != nil {
		return nil, err
	}
	r.set("PVV", pvv)

	return r, nil
}

func parseVerifyPin(code, keyFieldName, keyPrefixes string, body []byte) (*Request, error) {
	r := newRequest(code)
	c := &cursor{data: body}

	keyWidth := keyedFieldWidth(c, keyPrefixes)
	key, err := c.take(keyWidth)
	if err != nil {
		return nil, err
	}
	r.set(keyFieldName, key)

	pvkWidth := keyedFieldWidth(c, "U")
	pvk, err := c.take(pvkWidth)
	if err != nil {
		return nil, err
	}
	r.set("PVK Pair", pvk)

	pinBlock, err := c.take(16)
	if err != nil {
		return nil, err
	}
	r.set("PIN block", pinBlock)

	format, err := c.take(2)
	if err != nil {
		return nil, err
	}
	r.set("PIN block format code", format)

	account, err := c.take(12)
	if err != nil {
		return nil, err
	}
	r.set("Account Number", account)

	pvki, err := c.take(1)
	if err != nil {
		return nil, err
	}
	r.set("PVKI", pvki)

	pvv, err := c.take(4)
	if err != nil {
		return nil, err
	}
	r.set("PVV", pvv)

	return r, nil
}

// ParseFA parses "Translate ZPK from ZMK to LMK".
func ParseFA(body []byte) (*Request, error) {
	r := newRequest("FA")
	c := &cursor{data: body}

	if b, ok := c.peek(); ok && (b == 'U' || b == 'T') {
		zmk, err := c.take(33)
		if err != nil {
			return nil, err
		}
		r.set("ZMK", zmk)
	}

	if b, ok := c.peek(); ok && (b == 'U' || b == 'T' || b == 'X') {
		zpk, err := c.take(33)
		if err != nil {
			return nil, err
		}
		r.set("ZPK", zpk)
	}

	return r, nil
}

// ParseHC parses "Generate a TMK/TPK/PVK".
func ParseHC(body []byte) (*Request, error) {
	r := newRequest("HC")
	c := &cursor{data: body}

	currentWidth := 16
	if b, ok := c.peek(); ok && b == 'U' {
		currentWidth = 33
	}
	current, err := c.take(currentWidth)
	if err != nil {
		return nil, err
	}
	r.set("Current Key", current)

	if _, err := c.take(1); err != nil { // ';' delimiter
		return nil, err
	}

	tmkScheme, err := c.take(1)
	if err != nil {
		return nil, err
	}
	r.set("Key Scheme (TMK)", tmkScheme)

	lmkScheme, err := c.take(1)
	if err != nil {
		return nil, err
	}
	r.set("Key Scheme (LMK)", lmkScheme)

	return r, nil
}

// ParseNC parses "Diagnostics" — no body.
func ParseNC(body []byte) (*Request, error) {
	return newRequest("NC"), nil
}

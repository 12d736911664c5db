/*
 * Copyright (c) 2014, Yawning Angel <yawning at torproject dot org>
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions are met:
 *
 *  * Redistributions of source code must retain the above copyright notice,
 *    this list of conditions and the following disclaimer.
 *
 *  * Redistributions in binary form must reproduce the above copyright notice,
 *    this list of conditions and the following disclaimer in the documentation
 *    and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
 * AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
 * IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
 * ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
 * LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
 * CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
 * SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
 * INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
 * CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
 * ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// Package framing implements the Thales-style host command link framing.
//
// Unlike an obfuscated transport, the wire format here is deliberately
// transparent: a 2-byte big-endian length prefix followed by that many
// bytes of payload. The payload is 4 bytes of opaque header (echoed
// verbatim by the peer), 2 bytes of ASCII command code, and a
// command-specific body.
package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderLength is the length, in bytes, of the opaque header that
	// precedes the command code in every frame.
	HeaderLength = 4

	// CommandCodeLength is the length, in bytes, of the ASCII command code.
	CommandCodeLength = 2

	// lengthLength is the size of the big-endian length prefix.
	lengthLength = 2

	// MaxFrameLength bounds how large a single frame's payload may be.
	// The Thales command set has no payload anywhere near this size; it
	// exists purely to reject corrupt or malicious length prefixes before
	// attempting to allocate or read that many bytes.
	MaxFrameLength = 4096
)

// ErrPeerClosed is returned when the peer closes the connection mid-read.
var ErrPeerClosed = errors.New("framing: peer closed connection")

// ErrFrameTooShort is returned when a received payload doesn't contain
// enough bytes for a header and command code.
var ErrFrameTooShort = errors.New("framing: payload too short for header and command code")

// LengthMismatchError is returned by SplitFrame when prefix and payload
// length disagree.
type LengthMismatchError struct {
	Declared int
	Actual   int
}

func (e LengthMismatchError) Error() string {
	return fmt.Sprintf("framing: declared length %d does not match payload length %d", e.Declared, e.Actual)
}

// FrameLengthExceededError is returned by ReadFrame when the declared
// length prefix exceeds MaxFrameLength.
type FrameLengthExceededError int

func (e FrameLengthExceededError) Error() string {
	return fmt.Sprintf("framing: declared length %d exceeds maximum of %d", int(e), MaxFrameLength)
}

// ReadFrame reads exactly one length-prefixed frame from r, returning the
// full frame including the 2-byte length prefix (kept so callers can trace
// by wire length without recomputing it).
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [lengthLength]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPeerClosed
		}
		return nil, err
	}

	length := binary.BigEndian.Uint16(lenBuf[:])
	if int(length) > MaxFrameLength {
		return nil, FrameLengthExceededError(length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrPeerClosed
		}
		return nil, err
	}

	frame := make([]byte, 0, lengthLength+len(body))
	frame = append(frame, lenBuf[:]...)
	frame = append(frame, body...)
	return frame, nil
}

// WriteFrame writes be16(len(header)+len(body)) || header || body to w. An
// empty header is omitted from the length computation entirely, preserving
// compatibility with headerless clients.
func WriteFrame(w io.Writer, header, body []byte) error {
	var lenBuf [lengthLength]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(header)+len(body)))

	frame := make([]byte, 0, lengthLength+len(header)+len(body))
	frame = append(frame, lenBuf[:]...)
	frame = append(frame, header...)
	frame = append(frame, body...)

	_, err := w.Write(frame)
	return err
}

// SplitFrame parses a full frame (length prefix included, as returned by
// ReadFrame) into its header, command code and body.
func SplitFrame(frame []byte) (header, code, body []byte, err error) {
	if len(frame) < lengthLength {
		return nil, nil, nil, ErrFrameTooShort
	}

	declared := int(binary.BigEndian.Uint16(frame[:lengthLength]))
	payload := frame[lengthLength:]
	if declared != len(payload) {
		return nil, nil, nil, LengthMismatchError{Declared: declared, Actual: len(payload)}
	}

	if len(payload) < HeaderLength+CommandCodeLength {
		return nil, nil, nil, ErrFrameTooShort
	}

	header = payload[:HeaderLength]
	code = payload[HeaderLength : HeaderLength+CommandCodeLength]
	body = payload[HeaderLength+CommandCodeLength:]
	return header, code, body, nil
}

/* vim :set ts=4 sw=4 sts=4 noet : */

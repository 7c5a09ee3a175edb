// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

// Package textenc decodes legacy speech-announcer text payloads.
//
// The binary protocol tags text with a one-byte encoding id. Decoding is
// always lossy: undecodable bytes become U+FFFD and a failing codec falls
// back to UTF-8, so a bad payload can never error out of a read loop.
package textenc

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Encoding ids used by the wire protocol.
const (
	EncodingUTF8     byte = 0
	EncodingUTF16LE  byte = 1
	EncodingShiftJIS byte = 2
)

var (
	shiftJISDecoder = japanese.ShiftJIS
	utf16LEDecoder  = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// Decode converts raw text bytes to a string according to the protocol's
// encoding byte. Unknown ids decode as Shift_JIS, matching the appliance
// being emulated.
func Decode(data []byte, enc byte) string {
	switch enc {
	case EncodingUTF8:
		return lossyUTF8(data)
	case EncodingUTF16LE:
		return decodeWith(utf16LEDecoder, data)
	default:
		return decodeWith(shiftJISDecoder, data)
	}
}

// DecodeShiftJIS decodes data as Shift_JIS unconditionally. The 12-byte
// legacy frame layout carries no encoding hint.
func DecodeShiftJIS(data []byte) string {
	return decodeWith(shiftJISDecoder, data)
}

func decodeWith(e encoding.Encoding, data []byte) string {
	decoded, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return lossyUTF8(data)
	}
	return string(decoded)
}

func lossyUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

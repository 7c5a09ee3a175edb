// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package announcer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tomtom215/commentbridge/internal/textenc"
)

const (
	modernHeaderSize = 15
	legacyHeaderSize = 12

	// DefaultMaxTextLen bounds the declared text length of a modern frame.
	// Inherited constant, configurable; defends against a corrupt header
	// declaring an unbounded read.
	DefaultMaxTextLen = 10000

	// layoutResolveTimeout bounds the peek that decides between the two
	// header layouts. A legacy client that has sent its whole frame has
	// nothing more to send, so an unbounded peek would stall until the
	// peer closes.
	layoutResolveTimeout = 500 * time.Millisecond
)

// readDeadline is the subset of net.Conn used to bound the layout-resolving
// peek. Nil leaves the peek unbounded, for non-network streams.
type readDeadline interface {
	SetReadDeadline(t time.Time) error
}

// Frame decode failures. Both abort the owning connection.
var (
	ErrMalformedHeader = errors.New("malformed frame header")
	ErrOversizedText   = errors.New("declared text length out of bounds")
)

// Frame variant labels for logs and metrics.
const (
	variantModern = "modern"
	variantLegacy = "legacy"
)

// packet is one decoded binary frame. Constructed per frame, used to produce
// at most one comment event, then discarded.
type packet struct {
	Command  uint16
	Speed    int16
	Tone     int16
	Volume   int16
	Voice    int16
	Encoding byte
	Text     string
}

// raw returns the diagnostic payload map for the comment event.
func (p *packet) raw(variant string) map[string]any {
	return map[string]any{
		"command":  p.Command,
		"speed":    p.Speed,
		"tone":     p.Tone,
		"volume":   p.Volume,
		"voice":    p.Voice,
		"encoding": p.Encoding,
		"variant":  variant,
	}
}

// readFrame decodes one frame from the stream.
//
// The 15-byte header is attempted first: twelve header bytes are read, then
// three more are peeked. If the stream can supply them the frame is modern:
// command:u16, speed/tone/volume/voice:i16, encoding:u8, text_length:i32,
// then exactly text_length text bytes. If the stream cannot supply fifteen
// header bytes, either by ending or by staying silent past the resolve
// timeout, the twelve already read are reinterpreted as the legacy all-u16
// layout whose trailing field is a u16 text length, always decoded as
// Shift_JIS. A peer that stalls mid-frame past the timeout forfeits its
// connection.
//
// Returns io.EOF when the stream ends cleanly before any frame byte.
func readFrame(r *bufio.Reader, ctrl readDeadline, maxTextLen int) (*packet, string, error) {
	if maxTextLen <= 0 {
		maxTextLen = DefaultMaxTextLen
	}

	header := make([]byte, legacyHeaderSize)
	n, err := io.ReadFull(r, header)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		// A timed-out layout peek leaves its deadline error cached in the
		// buffered reader and it surfaces on the next drain. No deadline
		// is active here, so read the remainder normally.
		var n2 int
		n2, err = io.ReadFull(r, header[n:])
		n += n2
	}
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, "", io.EOF
		}
		return nil, "", fmt.Errorf("%w: short header read", ErrMalformedHeader)
	}

	if ctrl != nil {
		_ = ctrl.SetReadDeadline(time.Now().Add(layoutResolveTimeout))
	}
	extra, peekErr := r.Peek(modernHeaderSize - legacyHeaderSize)
	if ctrl != nil {
		_ = ctrl.SetReadDeadline(time.Time{})
	}
	if peekErr == nil && len(extra) == modernHeaderSize-legacyHeaderSize {
		return readModernFrame(r, header, extra, maxTextLen)
	}

	// Structural shortage of the 15-byte header: legacy fallback.
	return readLegacyFrame(r, header, extra)
}

func readModernFrame(r *bufio.Reader, header, extra []byte, maxTextLen int) (*packet, string, error) {
	full := make([]byte, 0, modernHeaderSize)
	full = append(full, header...)
	full = append(full, extra...)
	if _, err := r.Discard(len(extra)); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	textLen := int32(binary.LittleEndian.Uint32(full[11:15]))
	if textLen < 0 || int(textLen) > maxTextLen {
		return nil, "", fmt.Errorf("%w: %d", ErrOversizedText, textLen)
	}

	text := make([]byte, textLen)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, "", fmt.Errorf("%w: short text read", ErrMalformedHeader)
	}

	p := &packet{
		Command:  binary.LittleEndian.Uint16(full[0:2]),
		Speed:    int16(binary.LittleEndian.Uint16(full[2:4])),
		Tone:     int16(binary.LittleEndian.Uint16(full[4:6])),
		Volume:   int16(binary.LittleEndian.Uint16(full[6:8])),
		Voice:    int16(binary.LittleEndian.Uint16(full[8:10])),
		Encoding: full[10],
		Text:     textenc.Decode(text, full[10]),
	}
	return p, variantModern, nil
}

func readLegacyFrame(r *bufio.Reader, header, extra []byte) (*packet, string, error) {
	textLen := int(binary.LittleEndian.Uint16(header[10:12]))

	text := make([]byte, 0, textLen)
	if len(extra) > 0 {
		if _, err := r.Discard(len(extra)); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrMalformedHeader, err)
		}
		if len(extra) > textLen {
			extra = extra[:textLen]
		}
		text = append(text, extra...)
	}

	rest := make([]byte, textLen-len(text))
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, "", fmt.Errorf("%w: short text read", ErrMalformedHeader)
	}
	text = append(text, rest...)

	p := &packet{
		Command:  binary.LittleEndian.Uint16(header[0:2]),
		Speed:    int16(binary.LittleEndian.Uint16(header[2:4])),
		Tone:     int16(binary.LittleEndian.Uint16(header[4:6])),
		Volume:   int16(binary.LittleEndian.Uint16(header[6:8])),
		Voice:    int16(binary.LittleEndian.Uint16(header[8:10])),
		Encoding: textenc.EncodingShiftJIS,
		Text:     textenc.DecodeShiftJIS(text),
	}
	return p, variantLegacy, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"encoding/binary"
	"fmt"
)

// Frame is one marker-delimited, CRC-protected unit on the wire.
//
// Encoding, little-endian unless noted:
//
//	1 byte   0xFD, start-of-frame marker
//	2 bytes  flags word: bits 0-9 length of ID+body+CRC,
//	         bit 12 response, bit 13 more-fragments
//	1 byte   message ID
//	n bytes  body
//	2 bytes  CRC-16-CCITT (XMODEM) over ID+body
//	1 byte   0xDD, end-of-frame marker
type Frame struct {
	ID      uint8
	Flags   uint16
	Payload []byte
}

// NewFrame creates a non-fragment frame for the given message ID and body.
func NewFrame(id uint8, payload []byte) Frame {
	return Frame{ID: id, Payload: payload}
}

// NewFragment creates one fragment of a larger logical message. The last
// fragment of the sequence is sent with more=false.
func NewFragment(id uint8, payload []byte, more bool) Frame {
	f := Frame{ID: id, Payload: payload}
	if more {
		f.Flags |= FlagFragment
	}
	return f
}

// IsFragment reports whether more fragments of this message follow.
func (f Frame) IsFragment() bool {
	return f.Flags&FlagFragment != 0
}

// IsResponse reports whether the device marked this frame as a response.
func (f Frame) IsResponse() bool {
	return f.Flags&FlagResponse != 0
}

// wireLength is the value of the 10-bit length field: ID + body + CRC.
func (f Frame) wireLength() int {
	return frameOverhead + len(f.Payload)
}

// Encode serializes the frame to wire format, computing the length field and
// CRC. It fails with ErrPayloadTooLarge if the body exceeds MaxBodySize;
// splitting oversized messages into fragments is the caller's concern.
func (f Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxBodySize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(f.Payload), MaxBodySize)
	}

	length := uint16(f.wireLength())
	flags := f.Flags&^flagLengthMask | length

	buf := make([]byte, 0, headerSize+int(length)+1)
	buf = append(buf, StartOfFrame)
	buf = binary.LittleEndian.AppendUint16(buf, flags)
	buf = append(buf, f.ID)
	buf = append(buf, f.Payload...)

	crc := CalculateCRC(buf[headerSize:])
	buf = binary.LittleEndian.AppendUint16(buf, crc)
	buf = append(buf, EndOfFrame)
	return buf, nil
}

// DecodeFrame decodes exactly one well-formed frame. It never partially
// decodes: the input must hold one complete frame and nothing else.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < minFrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrMalformedLength, len(data))
	}
	if data[0] != StartOfFrame {
		return Frame{}, fmt.Errorf("%w: want start 0x%02X, got 0x%02X", ErrMissingMarker, StartOfFrame, data[0])
	}

	flags := binary.LittleEndian.Uint16(data[1:3])
	length := int(flags & flagLengthMask)
	if length < frameOverhead {
		return Frame{}, fmt.Errorf("%w: length field %d", ErrMalformedLength, length)
	}
	if len(data) != headerSize+length+1 {
		return Frame{}, fmt.Errorf("%w: length field %d for %d bytes", ErrMalformedLength, length, len(data))
	}
	if data[headerSize+length] != EndOfFrame {
		return Frame{}, fmt.Errorf("%w: want end 0x%02X, got 0x%02X", ErrMissingMarker, EndOfFrame, data[headerSize+length])
	}

	crcAt := headerSize + length - 2
	want := binary.LittleEndian.Uint16(data[crcAt : crcAt+2])
	got := CalculateCRC(data[headerSize:crcAt])
	if got != want {
		return Frame{}, fmt.Errorf("%w: calculated 0x%04X, frame carries 0x%04X", ErrCRCMismatch, got, want)
	}

	payload := make([]byte, length-frameOverhead)
	copy(payload, data[headerSize+1:crcAt])
	return Frame{ID: data[headerSize], Flags: flags, Payload: payload}, nil
}

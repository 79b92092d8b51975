// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"bytes"
	"errors"
	"testing"
)

func TestCalculateCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "empty",
			data:     nil,
			expected: 0x0000,
		},
		{
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0x31C3, // standard CRC-16/XMODEM check value
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if crc := CalculateCRC(tt.data); crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.expected, crc)
			}
		})
	}
}

func TestCalculateCRC_Residue(t *testing.T) {
	// Appending the CRC big-endian to its input must yield zero; the frame
	// validator depends on this property.
	data := []byte{0x60, 0x01, 0x02, 0x03}
	crc := CalculateCRC(data)
	full := append(append([]byte{}, data...), byte(crc>>8), byte(crc))
	if CalculateCRC(full) != 0 {
		t.Errorf("residue of data+CRC should be zero, got 0x%04X", CalculateCRC(full))
	}
}

func TestFrame_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		id      uint8
		payload []byte
		flags   uint16
	}{
		{name: "empty body", id: MsgDebugSKU, payload: nil},
		{name: "status body", id: MsgStatusUpdated, payload: []byte{0x00, 0x64, 0x5A, 0x01, 0x00, 0x11, 0x50}},
		{name: "response flag", id: MsgUsageReport, payload: []byte{0x00}, flags: FlagResponse},
		{name: "fragment flag", id: MsgLogCoredumpData, payload: bytes.Repeat([]byte{0xAB}, 128), flags: FlagFragment},
		{name: "max body", id: MsgLogCoredumpData, payload: bytes.Repeat([]byte{0x42}, MaxBodySize)},
		{name: "marker bytes in body", id: MsgTouchpadOther, payload: []byte{StartOfFrame, EndOfFrame, StartOfFrame}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Frame{ID: tt.id, Flags: tt.flags, Payload: tt.payload}
			data, err := f.Encode()
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			got, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame failed: %v", err)
			}
			if got.ID != tt.id {
				t.Errorf("ID mismatch: expected 0x%02X, got 0x%02X", tt.id, got.ID)
			}
			if !bytes.Equal(got.Payload, tt.payload) {
				t.Errorf("payload mismatch: expected % X, got % X", tt.payload, got.Payload)
			}
			if got.IsResponse() != (tt.flags&FlagResponse != 0) {
				t.Errorf("response flag mismatch")
			}
			if got.IsFragment() != (tt.flags&FlagFragment != 0) {
				t.Errorf("fragment flag mismatch")
			}
		})
	}
}

func TestFrame_EncodeTooLarge(t *testing.T) {
	f := NewFrame(MsgLogCoredumpData, make([]byte, MaxBodySize+1))
	if _, err := f.Encode(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestDecodeFrame_Errors(t *testing.T) {
	valid, err := NewFrame(MsgStatusUpdated, []byte{0x01, 0x02}).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{
			name:    "too short",
			mutate:  func(d []byte) []byte { return d[:4] },
			wantErr: ErrMalformedLength,
		},
		{
			name: "no start marker",
			mutate: func(d []byte) []byte {
				d[0] = 0x00
				return d
			},
			wantErr: ErrMissingMarker,
		},
		{
			name: "no end marker",
			mutate: func(d []byte) []byte {
				d[len(d)-1] = 0x00
				return d
			},
			wantErr: ErrMissingMarker,
		},
		{
			name: "length field too small",
			mutate: func(d []byte) []byte {
				d[1] = 0x01
				d[2] = 0x00
				return d
			},
			wantErr: ErrMalformedLength,
		},
		{
			name: "corrupted body",
			mutate: func(d []byte) []byte {
				d[4] ^= 0xFF
				return d
			},
			wantErr: ErrCRCMismatch,
		},
		{
			name: "corrupted CRC",
			mutate: func(d []byte) []byte {
				d[len(d)-2] ^= 0x01
				return d
			},
			wantErr: ErrCRCMismatch,
		},
		{
			name: "trailing bytes",
			mutate: func(d []byte) []byte {
				return append(d, 0x00)
			},
			wantErr: ErrMalformedLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), valid...))
			if _, err := DecodeFrame(data); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecodeFrame_CopiesPayload(t *testing.T) {
	data, err := NewFrame(MsgStatusUpdated, []byte{0x01, 0x02, 0x03}).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	data[4] = 0xFF
	if f.Payload[0] == 0xFF {
		t.Error("decoded payload aliases the input buffer")
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestCapture_RoundTrip(t *testing.T) {
	frames := []Frame{
		NewFrame(MsgStatusUpdated, []byte{0, 50, 50, 1, 0, 0x11, 40}),
		NewFrame(MsgDebugSKU, nil),
		NewFragment(MsgExtendedStatusUpdated, []byte{1, 2, 3}, true),
	}

	var buf bytes.Buffer
	w := NewCaptureWriter(&buf)
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	r := NewCaptureReader(&buf)
	for i, want := range frames {
		rec, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: read failed: %v", i, err)
		}
		if rec.Timestamp.IsZero() {
			t.Errorf("record %d: missing timestamp", i)
		}
		got, err := rec.Frame()
		if err != nil {
			t.Fatalf("record %d: decode failed: %v", i, err)
		}
		if got.ID != want.ID || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
		if got.IsFragment() != want.IsFragment() {
			t.Errorf("record %d: fragment flag lost", i)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestCapture_RawPassThrough(t *testing.T) {
	raw, err := NewFrame(MsgVersionInfo, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}).Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var buf bytes.Buffer
	w := NewCaptureWriter(&buf)
	if err := w.WriteRaw(raw); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rec, err := NewCaptureReader(&buf).Next()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(rec.Raw, raw) {
		t.Error("raw bytes must round-trip unchanged")
	}
}

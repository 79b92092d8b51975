// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// CaptureRecord is one frame captured from the wire, stored with its
// arrival timestamp. Records are CBOR-encoded back to back, so captures can
// be streamed and replayed without an index.
type CaptureRecord struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Raw       []byte    `cbor:"2,keyasint"`
}

// Frame decodes the captured bytes.
func (r CaptureRecord) Frame() (Frame, error) {
	return DecodeFrame(r.Raw)
}

// CaptureWriter appends frames to a CBOR capture stream.
type CaptureWriter struct {
	enc *cbor.Encoder
}

// NewCaptureWriter wraps w in a capture stream writer.
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: cbor.NewEncoder(w)}
}

// WriteFrame re-encodes and records one frame.
func (c *CaptureWriter) WriteFrame(f Frame) error {
	raw, err := f.Encode()
	if err != nil {
		return err
	}
	return c.WriteRaw(raw)
}

// WriteRaw records pre-encoded frame bytes.
func (c *CaptureWriter) WriteRaw(raw []byte) error {
	rec := CaptureRecord{Timestamp: time.Now(), Raw: raw}
	if err := c.enc.Encode(rec); err != nil {
		return fmt.Errorf("budspro: capture write failed: %w", err)
	}
	return nil
}

// CaptureReader reads a CBOR capture stream.
type CaptureReader struct {
	dec *cbor.Decoder
}

// NewCaptureReader wraps r in a capture stream reader.
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at end of stream.
func (c *CaptureReader) Next() (CaptureRecord, error) {
	var rec CaptureRecord
	if err := c.dec.Decode(&rec); err != nil {
		return CaptureRecord{}, err
	}
	return rec, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Result is one item extracted from the byte stream: either a valid frame or
// a decode error encountered while resynchronizing.
type Result struct {
	Frame Frame
	Err   error
}

// FrameReceiver turns an arbitrarily-chunked byte stream into a sequence of
// valid frames. It buffers incomplete trailing bytes between calls and
// recovers from corruption by scanning forward to the next start-of-frame
// marker, so a corrupt stretch of stream produces a bounded number of
// reported errors rather than a stall.
//
// FrameReceiver is not safe for concurrent use.
type FrameReceiver struct {
	buf []byte
}

// NewFrameReceiver creates a receiver with an empty buffer.
func NewFrameReceiver() *FrameReceiver {
	return &FrameReceiver{buf: make([]byte, 0, 2048)}
}

// Buffered returns the number of bytes held for the next Feed call.
func (r *FrameReceiver) Buffered() int {
	return len(r.buf)
}

// Reset discards all buffered bytes.
func (r *FrameReceiver) Reset() {
	r.buf = r.buf[:0]
}

// Feed appends chunk to the internal buffer and extracts as many complete
// frames as possible, in stream order. Skipped garbage and corrupt frames
// are reported as error results; no frame is ever emitted twice.
func (r *FrameReceiver) Feed(chunk []byte) []Result {
	r.buf = append(r.buf, chunk...)

	var out []Result
	for len(r.buf) > 0 {
		// Discard everything up to the next start-of-frame marker.
		if i := bytes.IndexByte(r.buf, StartOfFrame); i != 0 {
			if i < 0 {
				i = len(r.buf)
			}
			out = append(out, Result{Err: fmt.Errorf("%w: skipped %d non-framed bytes", ErrMissingMarker, i)})
			r.buf = r.buf[i:]
			continue
		}

		if len(r.buf) < headerSize {
			break // flags word not complete yet
		}
		flags := binary.LittleEndian.Uint16(r.buf[1:3])
		length := int(flags & flagLengthMask)
		if length < frameOverhead {
			// This start byte cannot open a frame; rescan past it.
			out = append(out, Result{Err: fmt.Errorf("%w: length field %d", ErrMalformedLength, length)})
			r.buf = r.buf[1:]
			continue
		}

		total := headerSize + length + 1
		if len(r.buf) < total {
			break // incomplete frame, wait for more bytes
		}

		if r.buf[total-1] != EndOfFrame {
			// The claimed frame does not end where it should. The start
			// marker was a false positive; rescan one byte further.
			out = append(out, Result{Err: fmt.Errorf("%w: no end marker after %d bytes", ErrMissingMarker, total-1)})
			r.buf = r.buf[1:]
			continue
		}

		f, err := DecodeFrame(r.buf[:total])
		r.buf = r.buf[total:]
		if err != nil {
			// Markers and length were consistent, so this really was a
			// frame; it just failed its CRC. Drop it whole.
			out = append(out, Result{Err: err})
			continue
		}
		out = append(out, Result{Frame: f})
	}
	return out
}

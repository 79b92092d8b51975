// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"errors"
	"fmt"
)

// Frame decode errors. These are local to the frame codec and the stream
// receiver: the receiver recovers by resynchronizing on the next
// start-of-frame marker, they are never fatal to the connection.
var (
	ErrMissingMarker   = errors.New("budspro: missing frame marker")
	ErrMalformedLength = errors.New("budspro: malformed frame length")
	ErrCRCMismatch     = errors.New("budspro: frame CRC mismatch")
)

// ErrPayloadTooLarge is returned by Frame.Encode when the body exceeds what
// the 10-bit length field can describe. Fragmentation is the caller's job.
var ErrPayloadTooLarge = errors.New("budspro: frame payload too large")

// Request lifecycle errors.
var (
	// ErrTimeout is returned when a pending request's deadline elapses
	// before a matching message arrives.
	ErrTimeout = errors.New("budspro: request timed out")

	// ErrConnectionClosed is returned for all outstanding and future
	// requests once the transport has ended.
	ErrConnectionClosed = errors.New("budspro: connection closed")

	// ErrCancelled is returned from Await after the caller cancelled the
	// pending request.
	ErrCancelled = errors.New("budspro: request cancelled")
)

// FragmentationError reports an aborted in-flight logical message: a frame
// of a different message ID arrived while a fragmented assembly was open.
// It affects only the aborted message, not the connection.
type FragmentationError struct {
	Open uint8 // ID of the assembly that was aborted
	Got  uint8 // ID of the frame that interrupted it
}

func (e *FragmentationError) Error() string {
	return fmt.Sprintf("budspro: fragment assembly of 0x%02X aborted by frame 0x%02X", e.Open, e.Got)
}

// MalformedPayloadError reports a message body that failed to decode for its
// message ID. The connection continues; only this message is affected.
type MalformedPayloadError struct {
	ID     uint8
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("budspro: malformed 0x%02X payload: %s", e.ID, e.Reason)
}

func malformed(id uint8, format string, args ...interface{}) *MalformedPayloadError {
	return &MalformedPayloadError{ID: id, Reason: fmt.Sprintf(format, args...)}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

// LogicalMessage is the reassembled payload of one or more frames sharing a
// message ID, where all but the last carried the more-fragments flag.
type LogicalMessage struct {
	ID      uint8
	Payload []byte
}

// FragmentAssembler accumulates consecutive fragment frames into logical
// messages. The protocol fragments at most one message at a time, so a frame
// of a different ID arriving mid-assembly aborts the open assembly.
//
// FragmentAssembler is not safe for concurrent use.
type FragmentAssembler struct {
	open bool
	id   uint8
	buf  []byte
}

// Open reports whether a fragmented assembly is in flight.
func (a *FragmentAssembler) Open() bool {
	return a.open
}

// Push consumes one frame. It returns a complete LogicalMessage when the
// frame finishes one (or is one by itself), nil otherwise.
//
// When a frame of a different ID interrupts an open assembly, Push aborts
// the assembly and returns a *FragmentationError — and still processes the
// interrupting frame, so both a message and an error can be returned from
// the same call.
func (a *FragmentAssembler) Push(f Frame) (*LogicalMessage, error) {
	if a.open && f.ID != a.id {
		err := &FragmentationError{Open: a.id, Got: f.ID}
		a.reset()
		msg, _ := a.Push(f)
		return msg, err
	}

	if !f.IsFragment() && !a.open {
		// Fast path: a complete message in a single frame.
		return &LogicalMessage{ID: f.ID, Payload: f.Payload}, nil
	}

	if !a.open {
		a.open = true
		a.id = f.ID
		a.buf = append([]byte(nil), f.Payload...)
	} else {
		a.buf = append(a.buf, f.Payload...)
	}

	if f.IsFragment() {
		return nil, nil
	}

	msg := &LogicalMessage{ID: a.id, Payload: a.buf}
	a.reset()
	return msg, nil
}

func (a *FragmentAssembler) reset() {
	a.open = false
	a.buf = nil
}

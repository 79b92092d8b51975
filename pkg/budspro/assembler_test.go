// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"bytes"
	"testing"
)

func TestFragmentAssembler_PassThrough(t *testing.T) {
	a := &FragmentAssembler{}
	msg, err := a.Push(NewFrame(MsgStatusUpdated, []byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == nil || msg.ID != MsgStatusUpdated || !bytes.Equal(msg.Payload, []byte{1, 2, 3}) {
		t.Fatalf("expected a complete message, got %v", msg)
	}
	if a.Open() {
		t.Error("no assembly should be open")
	}
}

func TestFragmentAssembler_Reassembly(t *testing.T) {
	a := &FragmentAssembler{}
	parts := [][]byte{
		bytes.Repeat([]byte{0x11}, 100),
		bytes.Repeat([]byte{0x22}, 100),
		bytes.Repeat([]byte{0x33}, 50),
	}

	for i, p := range parts[:2] {
		msg, err := a.Push(NewFragment(MsgLogCoredumpData, p, true))
		if err != nil {
			t.Fatalf("fragment %d: unexpected error: %v", i, err)
		}
		if msg != nil {
			t.Fatalf("fragment %d: premature message", i)
		}
	}

	msg, err := a.Push(NewFragment(MsgLogCoredumpData, parts[2], false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == nil {
		t.Fatal("expected the completed message")
	}

	want := bytes.Join(parts, nil)
	if msg.ID != MsgLogCoredumpData || !bytes.Equal(msg.Payload, want) {
		t.Errorf("reassembled payload mismatch: %d bytes, want %d", len(msg.Payload), len(want))
	}
	if a.Open() {
		t.Error("assembly should be closed")
	}
}

func TestFragmentAssembler_InterleavedTypeAborts(t *testing.T) {
	a := &FragmentAssembler{}
	if _, err := a.Push(NewFragment(MsgLogCoredumpData, []byte{1, 2}, true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A complete frame of another ID aborts the assembly and is still
	// processed itself.
	msg, err := a.Push(NewFrame(MsgStatusUpdated, []byte{9, 9}))
	fe, ok := err.(*FragmentationError)
	if !ok {
		t.Fatalf("expected FragmentationError, got %v", err)
	}
	if fe.Open != MsgLogCoredumpData || fe.Got != MsgStatusUpdated {
		t.Errorf("wrong error detail: %v", fe)
	}
	if msg == nil || msg.ID != MsgStatusUpdated {
		t.Fatalf("interrupting frame should still produce its message, got %v", msg)
	}

	// The aborted assembly is gone: a fresh final fragment with the old ID
	// starts (and finishes) a new one rather than inheriting stale bytes.
	msg, err = a.Push(NewFragment(MsgLogCoredumpData, []byte{3, 4}, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(msg.Payload, []byte{3, 4}) {
		t.Errorf("stale fragment bytes leaked into new assembly: % X", msg.Payload)
	}
}

func TestFragmentAssembler_InterleavedFragmentOpensNew(t *testing.T) {
	a := &FragmentAssembler{}
	if _, err := a.Push(NewFragment(MsgLogCoredumpData, []byte{1}, true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, err := a.Push(NewFragment(MsgLogTraceData, []byte{2}, true))
	if _, ok := err.(*FragmentationError); !ok {
		t.Fatalf("expected FragmentationError, got %v", err)
	}
	if msg != nil {
		t.Fatalf("an opening fragment should not complete a message")
	}
	if !a.Open() {
		t.Fatal("the interrupting fragment should have opened a new assembly")
	}

	msg, err = a.Push(NewFragment(MsgLogTraceData, []byte{3}, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == nil || msg.ID != MsgLogTraceData || !bytes.Equal(msg.Payload, []byte{2, 3}) {
		t.Errorf("new assembly corrupted: %v", msg)
	}
}

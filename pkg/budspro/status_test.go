// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"errors"
	"testing"
	"time"
)

func TestStatusAggregator_MergesExtendedThenCompact(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	ext, err := ParseMessage(MsgExtendedStatusUpdated, buildExtendedStatus(2))
	if err != nil {
		t.Fatalf("fixture parse failed: %v", err)
	}
	d.Deliver(ext)

	s, err := a.WaitFor(func(s DeviceStatus) bool { return s.HasExtended }, time.Second)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if s.BatteryLeft != 80 || s.BatteryRight != 75 || s.BatteryCase != 55 {
		t.Errorf("battery mismatch: %+v", s)
	}
	if s.NoiseControls != NoiseControlANC || s.EqualizerType != EqualizerDynamic {
		t.Errorf("settings mismatch: %+v", s)
	}
	if !s.Wearing() {
		t.Error("both earbuds worn, Wearing() must be true")
	}

	// A compact update only touches the compact fields.
	d.Deliver(&StatusUpdated{
		BatteryLeft:    50,
		BatteryRight:   45,
		PlacementLeft:  PlacementInCase,
		PlacementRight: PlacementInCase,
		batteryCase:    60,
	})
	s, err = a.WaitFor(func(s DeviceStatus) bool { return s.BatteryLeft == 50 }, time.Second)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if s.NoiseControls != NoiseControlANC || !s.HasExtended {
		t.Error("compact update must not clear extended fields")
	}
	if s.Wearing() {
		t.Error("both earbuds in the case, Wearing() must be false")
	}
	if s.BatteryCase != 60 {
		t.Errorf("case battery = %d, want 60", s.BatteryCase)
	}
}

func TestStatusAggregator_SideChannels(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	d.Deliver(&NoiseControlsUpdate{Mode: NoiseControlAmbient})
	d.Deliver(&TouchUpdated{Locked: true})
	d.Deliver(&VersionInfo{LeftHWVersion: 7})

	s, err := a.WaitFor(func(s DeviceStatus) bool { return s.Version != nil }, time.Second)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if s.NoiseControls != NoiseControlAmbient || !s.TouchpadLocked {
		t.Errorf("side updates missing: %+v", s)
	}
	if s.Version.LeftHWVersion != 7 {
		t.Errorf("version not merged: %+v", s.Version)
	}
}

func TestStatusAggregator_FotaResult(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	d.Deliver(&FotaResult{Result: 1, ErrorCode: 4})

	s, err := a.WaitFor(func(s DeviceStatus) bool { return s.LastFotaResult != nil }, time.Second)
	if err != nil {
		t.Fatalf("firmware update result never reached the snapshot: %v", err)
	}
	if s.LastFotaResult.Result != 1 || s.LastFotaResult.ErrorCode != 4 {
		t.Errorf("result not merged: %+v", s.LastFotaResult)
	}
}

func TestStatusAggregator_IgnoresReports(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	// Usage and metering reports are telemetry, not device state: neither
	// may touch the snapshot.
	d.Deliver(&UsageReport{Entries: map[string]uint32{"ABC": 10}})
	d.Deliver(&MeteringReport{Format: 2})

	_, err := a.WaitFor(func(s DeviceStatus) bool { return !s.UpdatedAt.IsZero() }, 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("reports must not update the snapshot, got %v", err)
	}
}

func TestStatusAggregator_SeesClaimedMessages(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	p, _ := d.Expect(MatchID(MsgStatusUpdated))
	d.Deliver(&StatusUpdated{BatteryLeft: 33})

	if _, err := p.Await(time.Second); err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if _, err := a.WaitFor(func(s DeviceStatus) bool { return s.BatteryLeft == 33 }, time.Second); err != nil {
		t.Errorf("solicited status reply must still update the snapshot: %v", err)
	}
}

func TestStatusAggregator_WaitForTimeout(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	_, err := a.WaitFor(func(DeviceStatus) bool { return false }, 10*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestStatusAggregator_WaitForConcurrent(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	done := make(chan error, 1)
	go func() {
		_, err := a.WaitFor(func(s DeviceStatus) bool { return s.BatteryLeft == 77 }, 2*time.Second)
		done <- err
	}()

	// Interleave non-matching and matching updates while the waiter blocks.
	d.Deliver(&StatusUpdated{BatteryLeft: 10})
	d.Deliver(&StatusUpdated{BatteryLeft: 77})

	if err := <-done; err != nil {
		t.Errorf("waiter did not observe the matching snapshot: %v", err)
	}
}

func TestStatusAggregator_WaitForClosure(t *testing.T) {
	d := newTestDispatcher()
	a := newStatusAggregator(d)

	go func() {
		time.Sleep(10 * time.Millisecond)
		d.Close(nil)
	}()

	_, err := a.WaitFor(func(DeviceStatus) bool { return false }, 5*time.Second)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}
}

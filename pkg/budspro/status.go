// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"sync"
	"time"
)

// DeviceStatus is the aggregated latest-known device state, merged from
// status-kind messages. Fields are last-write-wins and never rolled back.
type DeviceStatus struct {
	Revision      uint8
	BatteryLeft   int
	BatteryRight  int
	BatteryCase   int
	Coupled       bool
	PrimaryEarbud uint8

	PlacementLeft  Placement
	PlacementRight Placement

	NoiseControls       NoiseControlMode
	EqualizerType       EqualizerPreset
	TouchpadLocked      bool
	TouchpadOptionLeft  TouchpadAction
	TouchpadOptionRight TouchpadAction
	AmbientSoundLevel   uint8
	NoiseReductionLevel uint8
	VoiceWakeUp         bool
	WakeupListening     bool

	Version *VersionInfo

	// LastFotaResult is the most recent firmware update outcome, nil until
	// one arrives.
	LastFotaResult *FotaResult

	// HasExtended is set once the initial extended status burst was seen;
	// before that only the compact fields are meaningful.
	HasExtended bool

	UpdatedAt time.Time
}

// Wearing reports whether at least one earbud is currently worn.
func (s DeviceStatus) Wearing() bool {
	return s.PlacementLeft == PlacementWearing || s.PlacementRight == PlacementWearing
}

// statusKind matches the message kinds the aggregator merges.
func statusKind(m Message) bool {
	switch m.(type) {
	case *StatusUpdated, *ExtendedStatusUpdated, *VersionInfo,
		*NoiseControlsUpdate, *TouchUpdated, *VoiceWakeupListening,
		*FotaResult:
		return true
	}
	return false
}

// StatusAggregator merges incoming status-kind messages into a shared
// snapshot. It subscribes passively so a solicited status reply still
// updates the snapshot even when a one-shot request claimed it.
//
// StatusAggregator is safe for concurrent use.
type StatusAggregator struct {
	mu      sync.Mutex
	cur     DeviceStatus
	changed chan struct{}
	done    chan struct{}
	sub     *Subscription
}

func newStatusAggregator(d *Dispatcher) *StatusAggregator {
	a := &StatusAggregator{
		changed: make(chan struct{}),
		done:    make(chan struct{}),
		sub:     d.Subscribe(statusKind, Passive(), WithBuffer(64)),
	}
	go a.run()
	return a
}

func (a *StatusAggregator) run() {
	for m := range a.sub.Messages() {
		a.merge(m)
	}
	// Stream ended: wake every waiter a final time.
	a.mu.Lock()
	close(a.done)
	close(a.changed)
	a.changed = nil
	a.mu.Unlock()
}

// Current returns a copy of the latest snapshot.
func (a *StatusAggregator) Current() DeviceStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cur
}

// WaitFor blocks until the snapshot satisfies pred or the timeout elapses.
// It returns the satisfying snapshot, or the latest snapshot together with
// ErrTimeout or ErrConnectionClosed.
func (a *StatusAggregator) WaitFor(pred func(DeviceStatus) bool, timeout time.Duration) (DeviceStatus, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		a.mu.Lock()
		cur := a.cur
		ch := a.changed
		a.mu.Unlock()

		if pred(cur) {
			return cur, nil
		}
		if ch == nil {
			return cur, ErrConnectionClosed
		}

		select {
		case <-ch:
		case <-a.done:
			// Re-check once: a final merge may have satisfied pred.
			a.mu.Lock()
			cur = a.cur
			a.mu.Unlock()
			if pred(cur) {
				return cur, nil
			}
			return cur, ErrConnectionClosed
		case <-timer.C:
			return cur, ErrTimeout
		}
	}
}

func (a *StatusAggregator) merge(m Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch v := m.(type) {
	case *StatusUpdated:
		a.cur.BatteryLeft = int(v.BatteryLeft)
		a.cur.BatteryRight = int(v.BatteryRight)
		a.cur.BatteryCase = v.BatteryCase()
		a.cur.Coupled = v.Coupled
		a.cur.PrimaryEarbud = v.PrimaryEarbud
		a.cur.PlacementLeft = v.PlacementLeft
		a.cur.PlacementRight = v.PlacementRight

	case *ExtendedStatusUpdated:
		a.cur.Revision = v.Revision
		a.cur.BatteryLeft = int(v.BatteryLeft)
		a.cur.BatteryRight = int(v.BatteryRight)
		a.cur.BatteryCase = v.BatteryCase()
		a.cur.Coupled = v.Coupled
		a.cur.PrimaryEarbud = v.PrimaryEarbud
		a.cur.PlacementLeft = v.PlacementLeft
		a.cur.PlacementRight = v.PlacementRight
		a.cur.NoiseControls = v.NoiseControls
		a.cur.EqualizerType = v.EqualizerType
		a.cur.TouchpadLocked = v.TouchpadLocked
		a.cur.TouchpadOptionLeft = v.TouchpadOptionLeft
		a.cur.TouchpadOptionRight = v.TouchpadOptionRight
		a.cur.AmbientSoundLevel = v.AmbientSoundLevel
		a.cur.NoiseReductionLevel = v.NoiseReductionLevel
		a.cur.VoiceWakeUp = v.VoiceWakeUp
		a.cur.HasExtended = true

	case *VersionInfo:
		vi := *v
		a.cur.Version = &vi

	case *NoiseControlsUpdate:
		a.cur.NoiseControls = v.Mode

	case *TouchUpdated:
		a.cur.TouchpadLocked = v.Locked

	case *VoiceWakeupListening:
		a.cur.WakeupListening = v.Listening

	case *FotaResult:
		fr := *v
		a.cur.LastFotaResult = &fr

	default:
		return
	}

	a.cur.UpdatedAt = time.Now()
	if a.changed != nil {
		close(a.changed)
		a.changed = make(chan struct{})
	}
}

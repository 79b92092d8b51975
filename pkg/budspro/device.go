// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds request waits when the caller has no better value.
// The firmware normally answers within a few hundred milliseconds.
const DefaultTimeout = 5 * time.Second

// Device is one connected pair of earbuds. It owns the transport: a single
// background goroutine reads the stream and drives the frame receiver,
// fragment assembler, message parser and dispatcher; writes are serialized
// so concurrent callers never interleave bytes on the wire.
//
// Device is safe for concurrent use.
type Device struct {
	conn   io.ReadWriteCloser
	disp   *Dispatcher
	status *StatusAggregator
	log    zerolog.Logger
	tap    func(Frame)

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used by the receiver loop and dispatcher.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Device) { d.log = log }
}

// WithFrameTap registers a callback invoked from the receiver loop for
// every valid frame, before dispatch. The callback must not block.
func WithFrameTap(tap func(Frame)) Option {
	return func(d *Device) { d.tap = tap }
}

// Open takes ownership of conn and starts the receiver loop. The transport
// is assumed ordered, reliable and byte-oriented; any read error is
// terminal for the connection.
func Open(conn io.ReadWriteCloser, opts ...Option) *Device {
	d := &Device{
		conn: conn,
		log:  zerolog.Nop(),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.disp = NewDispatcher(d.log)
	d.status = newStatusAggregator(d.disp)
	go d.readLoop()
	return d
}

// Dispatcher exposes the message dispatcher for custom subscriptions.
func (d *Device) Dispatcher() *Dispatcher { return d.disp }

// Status exposes the shared status aggregator.
func (d *Device) Status() *StatusAggregator { return d.status }

// Done is closed once the receiver loop has terminated and all pending
// work has been failed.
func (d *Device) Done() <-chan struct{} { return d.done }

// Close shuts the connection down: the transport is closed, the receiver
// loop drains and exits, and every outstanding request fails with
// ErrConnectionClosed. Close blocks until that teardown is complete.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.conn.Close()
	})
	<-d.done
	return err
}

func (d *Device) readLoop() {
	rx := NewFrameReceiver()
	asm := &FragmentAssembler{}
	buf := make([]byte, 2048)

	for {
		n, err := d.conn.Read(buf)
		if n > 0 {
			for _, res := range rx.Feed(buf[:n]) {
				if res.Err != nil {
					frameErrors.WithLabelValues(frameErrorKind(res.Err)).Inc()
					d.log.Warn().Err(res.Err).Msg("lost data in stream")
					continue
				}
				framesDecoded.Inc()
				d.handleFrame(asm, res.Frame)
			}
		}
		if err != nil {
			if err != io.EOF {
				d.log.Warn().Err(err).Msg("transport read failed")
			}
			d.disp.Close(ErrConnectionClosed)
			close(d.done)
			return
		}
	}
}

func (d *Device) handleFrame(asm *FragmentAssembler, f Frame) {
	if d.tap != nil {
		d.tap(f)
	}

	msg, err := asm.Push(f)
	if err != nil {
		fragmentAborts.Inc()
		d.log.Warn().Err(err).Msg("aborted fragment assembly")
	}
	if msg == nil {
		return
	}

	m, perr := ParseMessage(msg.ID, msg.Payload)
	if perr != nil {
		// A bad body fails only this message. Deliver the malformed
		// variant so whoever awaited it sees the failure.
		d.log.Warn().Err(perr).Msg("malformed message body")
		m = &Malformed{ID: msg.ID, Raw: msg.Payload, Err: perr}
	}
	d.disp.Deliver(m)
}

// Send encodes and writes one frame. Writes from concurrent callers are
// serialized; one frame completes before the next begins.
func (d *Device) Send(f Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	return d.WriteRaw(data)
}

// WriteRaw writes pre-encoded frame bytes to the transport, serialized
// against other writers.
func (d *Device) WriteRaw(data []byte) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if _, err := d.conn.Write(data); err != nil {
		return fmt.Errorf("budspro: write failed: %w", err)
	}
	return nil
}

// Request registers a one-shot matcher, sends the frame, and waits for the
// matching response. Registration happens before the write so a fast
// response cannot race it.
func (d *Device) Request(f Frame, match Matcher, timeout time.Duration) (Message, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p, err := d.disp.Expect(match)
	if err != nil {
		return nil, err
	}
	if err := d.Send(f); err != nil {
		p.Cancel()
		return nil, err
	}
	return p.Await(timeout)
}

// requestAck sends a frame and waits for the universal acknowledgement
// redirecting to its message ID.
func (d *Device) requestAck(f Frame, timeout time.Duration) (*UniversalAck, error) {
	m, err := d.Request(f, MatchAck(f.ID), timeout)
	if err != nil {
		return nil, err
	}
	ack, ok := m.(*UniversalAck)
	if !ok {
		return nil, malformed(MsgUniversalAck, "unexpected %T", m)
	}
	return ack, nil
}

// DebugSKU returns the SKU (product code) of the left and right earbud.
func (d *Device) DebugSKU(timeout time.Duration) (left, right string, err error) {
	m, err := d.Request(DebugSKURequest(), MatchID(MsgDebugSKU), timeout)
	if err != nil {
		return "", "", err
	}
	pair, ok := m.(*StringPair)
	if !ok {
		return "", "", malformed(MsgDebugSKU, "unexpected %T", m)
	}
	return pair.Left, pair.Right, nil
}

// DebugSerialNumber returns the serial number of the left and right earbud.
func (d *Device) DebugSerialNumber(timeout time.Duration) (left, right string, err error) {
	m, err := d.Request(DebugSerialNumberRequest(), MatchID(MsgDebugSerialNumber), timeout)
	if err != nil {
		return "", "", err
	}
	pair, ok := m.(*StringPair)
	if !ok {
		return "", "", malformed(MsgDebugSerialNumber, "unexpected %T", m)
	}
	return pair.Left, pair.Right, nil
}

// StartFindMyEarbuds makes the earbuds start chirping. The chirp stops when
// StopFindMyEarbuds is called or the connection closes.
func (d *Device) StartFindMyEarbuds(timeout time.Duration) error {
	_, err := d.requestAck(FindMyEarbudsStartRequest(), timeout)
	return err
}

// StopFindMyEarbuds stops the chirping started with StartFindMyEarbuds.
func (d *Device) StopFindMyEarbuds(timeout time.Duration) error {
	_, err := d.requestAck(FindMyEarbudsStopRequest(), timeout)
	return err
}

// MuteEarbud mutes the find-my-earbuds chirp per side.
func (d *Device) MuteEarbud(left, right bool, timeout time.Duration) error {
	_, err := d.requestAck(MuteEarbudRequest(left, right), timeout)
	return err
}

// SetNoiseControls sets the noise control mode.
func (d *Device) SetNoiseControls(mode NoiseControlMode, timeout time.Duration) error {
	if mode > NoiseControlAmbient {
		return fmt.Errorf("budspro: invalid noise control mode %d", mode)
	}
	_, err := d.requestAck(NoiseControlsRequest(mode), timeout)
	return err
}

// SetNoiseReduction toggles the legacy noise reduction switch, waiting for
// the device to report the new state.
func (d *Device) SetNoiseReduction(enabled bool, timeout time.Duration) error {
	match := func(m Message) bool {
		u, ok := m.(*NoiseControlsUpdate)
		return ok && (u.Mode != NoiseControlOff) == enabled
	}
	_, err := d.Request(NoiseReductionRequest(enabled), match, timeout)
	return err
}

// SetEqualizer sets the sound equalizer preset.
func (d *Device) SetEqualizer(preset EqualizerPreset, timeout time.Duration) error {
	if preset > EqualizerTrebleBoost {
		return fmt.Errorf("budspro: invalid equalizer preset %d", preset)
	}
	_, err := d.requestAck(EqualizerRequest(preset), timeout)
	return err
}

// SetTouchpadLock locks or unlocks the touchpads.
func (d *Device) SetTouchpadLock(locked bool, timeout time.Duration) error {
	_, err := d.requestAck(LockTouchpadRequest(locked), timeout)
	return err
}

// SetTouchpadOption binds the touch-and-hold actions for both earbuds.
func (d *Device) SetTouchpadOption(left, right TouchpadAction, timeout time.Duration) error {
	for _, v := range []TouchpadAction{left, right} {
		if v < TouchpadActionANC || v > TouchpadActionApp6 {
			return fmt.Errorf("budspro: invalid touchpad action %d", v)
		}
	}
	_, err := d.requestAck(TouchpadOptionRequest(left, right), timeout)
	return err
}

// UpdateTime pushes the current wall clock to the device. The firmware
// sends no reply.
func (d *Device) UpdateTime(t time.Time) error {
	return d.Send(UpdateTimeRequest(t))
}

// ListenTouchAndHold subscribes to touch-and-hold app-launch events. The
// returned subscription's channel closes when the connection ends.
func (d *Device) ListenTouchAndHold() *Subscription {
	return d.disp.Subscribe(MatchID(MsgTouchpadOther))
}

// Subscribe registers a standing subscription on the message stream.
func (d *Device) Subscribe(match Matcher, opts ...SubscribeOption) *Subscription {
	return d.disp.Subscribe(match, opts...)
}

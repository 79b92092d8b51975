// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"encoding/binary"
	"time"
)

// Request frame constructors. These build the exact frames the firmware
// expects; the Device methods pair them with the matching response.

// DebugSKURequest asks for the SKU (product code) of both earbuds.
func DebugSKURequest() Frame {
	return NewFrame(MsgDebugSKU, nil)
}

// DebugSerialNumberRequest asks for the serial number of both earbuds.
func DebugSerialNumberRequest() Frame {
	return NewFrame(MsgDebugSerialNumber, nil)
}

// NoiseControlsRequest sets the noise control mode.
func NoiseControlsRequest(mode NoiseControlMode) Frame {
	return NewFrame(MsgNoiseControls, []byte{byte(mode)})
}

// NoiseReductionRequest toggles the legacy noise reduction switch.
func NoiseReductionRequest(enabled bool) Frame {
	return NewFrame(MsgSetNoiseReduction, []byte{boolByte(enabled)})
}

// EqualizerRequest sets the sound equalizer preset.
func EqualizerRequest(preset EqualizerPreset) Frame {
	return NewFrame(MsgSetEqualizer, []byte{byte(preset)})
}

// LockTouchpadRequest locks or unlocks the touchpads.
func LockTouchpadRequest(locked bool) Frame {
	return NewFrame(MsgLockTouchpad, []byte{boolByte(locked)})
}

// TouchpadOptionRequest binds the touch-and-hold actions per earbud.
func TouchpadOptionRequest(left, right TouchpadAction) Frame {
	return NewFrame(MsgSetTouchpadOption, []byte{byte(left), byte(right)})
}

// FindMyEarbudsStartRequest makes the earbuds start chirping.
func FindMyEarbudsStartRequest() Frame {
	return NewFrame(MsgFindMyEarbudsStart, nil)
}

// FindMyEarbudsStopRequest stops the chirping.
func FindMyEarbudsStopRequest() Frame {
	return NewFrame(MsgFindMyEarbudsStop, nil)
}

// MuteEarbudRequest mutes the chirp per earbud.
func MuteEarbudRequest(left, right bool) Frame {
	return NewFrame(MsgMuteEarbud, []byte{boolByte(left), boolByte(right)})
}

// UsageReportResponse acknowledges a usage report with a response code.
func UsageReportResponse(code uint8) Frame {
	f := NewFrame(MsgUsageReport, []byte{code})
	f.Flags |= FlagResponse
	return f
}

// UpdateTimeRequest pushes the current wall clock and timezone offset to
// the device.
func UpdateTimeRequest(t time.Time) Frame {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body[0:4], uint32(t.Unix()))
	_, offset := t.Zone()
	binary.LittleEndian.PutUint32(body[4:8], uint32(int32(offset)))
	return NewFrame(MsgUpdateTime, body)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

// Package budspro implements the Galaxy Buds Pro wearable protocol as spoken
// over an RFCOMM serial stream.
//
// The wire format is a marker-delimited, CRC-protected frame carrying one
// message (or one fragment of a larger message). This package provides the
// frame codec, a resynchronizing stream receiver, fragment reassembly, typed
// message decoding, and a dispatcher correlating solicited and unsolicited
// messages with concurrent callers.
package budspro

// Protocol framing bytes
const (
	StartOfFrame = 0xFD
	EndOfFrame   = 0xDD
)

// Frame flags word (little-endian on the wire). Bits 0-9 carry the length of
// message ID + body + CRC; the upper bits are flags.
const (
	flagLengthMask uint16 = 0x03FF
	FlagResponse   uint16 = 0x1000
	FlagFragment   uint16 = 0x2000
)

// Frame size accounting. The length field covers the message ID, the body and
// the CRC, so the smallest legal value is 3 and the body is bounded by the
// 10-bit length field.
const (
	frameOverhead = 3                              // ID byte + 2 CRC bytes
	headerSize    = 3                              // SOF + flags word
	minFrameSize  = headerSize + frameOverhead + 1 // plus EOF
	MaxBodySize   = int(flagLengthMask) - frameOverhead
)

// CRC-16-CCITT (XMODEM) configuration. Recovered from captured device
// traffic: initial value zero, polynomial 0x1021, CRC little-endian on the
// wire.
const crcPolynomial = 0x1021

// Message IDs - debug 0x20-0x2F
const (
	MsgDebugSKU          = 0x22
	MsgDebugAllData      = 0x26
	MsgDebugSerialNumber = 0x29
)

// Message IDs - coredump and trace log transfer 0x31-0x3B
const (
	MsgLogCoredumpDataSize = 0x31
	MsgLogCoredumpData     = 0x32
	MsgLogCoredumpComplete = 0x33
	MsgLogTraceStart       = 0x34
	MsgLogTraceData        = 0x35
	MsgLogTraceComplete    = 0x36
	MsgLogSessionOpen      = 0x3A
	MsgLogSessionClose     = 0x3B
)

// Message IDs - reports and acknowledgements 0x40-0x4F
const (
	MsgUsageReport    = 0x40
	MsgMeteringReport = 0x41
	MsgUniversalAck   = 0x42
)

// Message IDs - status 0x60-0x7F
const (
	MsgStatusUpdated         = 0x60
	MsgExtendedStatusUpdated = 0x61
	MsgVersionInfo           = 0x63
	MsgAmbientDuringCall     = 0x6D
	MsgNoiseControlsUpdate   = 0x77
	MsgNoiseControls         = 0x78
)

// Message IDs - sound and touchpad configuration 0x80-0x9F
const (
	MsgSetEqualizer         = 0x86
	MsgLockTouchpad         = 0x90
	MsgTouchUpdated         = 0x91
	MsgSetTouchpadOption    = 0x92
	MsgTouchpadOther        = 0x93
	MsgSetNoiseReduction    = 0x98
	MsgVoiceWakeupListening = 0x9C
)

// Message IDs - find my earbuds and misc 0xA0-0xAF
const (
	MsgFindMyEarbudsStart = 0xA0
	MsgFindMyEarbudsStop  = 0xA1
	MsgMuteEarbud         = 0xA2
	MsgUpdateTime         = 0xA7
)

// Message IDs - firmware update 0xB0-0xBF
const (
	MsgFotaResult = 0xB9
)

// Placement represents where one earbud currently is.
type Placement uint8

// Placement values
const (
	PlacementUnknown Placement = 0
	PlacementWearing Placement = 1
	PlacementOutside Placement = 2
	PlacementInCase  Placement = 3
)

// NoiseControlMode represents the noise control setting.
type NoiseControlMode uint8

// Noise control values
const (
	NoiseControlOff     NoiseControlMode = 0
	NoiseControlANC     NoiseControlMode = 1
	NoiseControlAmbient NoiseControlMode = 2
)

// EqualizerPreset represents the sound equalizer setting.
type EqualizerPreset uint8

// Equalizer preset values
const (
	EqualizerNormal      EqualizerPreset = 0
	EqualizerBassBoost   EqualizerPreset = 1
	EqualizerSoft        EqualizerPreset = 2
	EqualizerDynamic     EqualizerPreset = 3
	EqualizerClear       EqualizerPreset = 4
	EqualizerTrebleBoost EqualizerPreset = 5
)

// TouchpadAction represents a touch-and-hold action binding.
type TouchpadAction uint8

// Touchpad action values. Spotify is hard-coded in the vendor app; App5 and
// App6 are user-configurable slots.
const (
	TouchpadActionANC     TouchpadAction = 2
	TouchpadActionVolume  TouchpadAction = 3
	TouchpadActionSpotify TouchpadAction = 4
	TouchpadActionApp5    TouchpadAction = 5
	TouchpadActionApp6    TouchpadAction = 6
)

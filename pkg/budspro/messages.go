// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"bytes"
	"encoding/binary"
)

// Message is a decoded frame body. Concrete types cover the message kinds
// the firmware is known to send; anything else decodes to Unknown so newer
// firmware revisions never break the connection.
type Message interface {
	// MsgID returns the wire message ID this value was decoded from.
	MsgID() uint8
}

// Unknown carries the raw body of a message ID this package does not decode.
type Unknown struct {
	ID  uint8
	Raw []byte
}

func (m *Unknown) MsgID() uint8 { return m.ID }

// Malformed carries the raw body of a known message ID whose body failed
// validation. It is delivered in place of the typed message so the caller
// that would have received it learns about the failure.
type Malformed struct {
	ID  uint8
	Raw []byte
	Err error
}

func (m *Malformed) MsgID() uint8 { return m.ID }

// StringPair is a per-earbud pair of ASCII strings, used by the debug SKU
// and serial number messages.
type StringPair struct {
	id          uint8
	Left, Right string
}

func (m *StringPair) MsgID() uint8 { return m.id }

// StatusUpdated is the compact status message the earbuds send once the
// initial extended status burst is over.
type StatusUpdated struct {
	Revision       uint8
	BatteryLeft    uint8
	BatteryRight   uint8
	Coupled        bool
	PrimaryEarbud  uint8
	PlacementLeft  Placement
	PlacementRight Placement

	batteryCase uint8
}

func (m *StatusUpdated) MsgID() uint8 { return MsgStatusUpdated }

// BatteryCase returns the case battery percentage, or -1 when the case is
// out of range (the firmware reports 101).
func (m *StatusUpdated) BatteryCase() int {
	if m.batteryCase == 101 {
		return -1
	}
	return int(m.batteryCase)
}

// ExtendedStatusUpdated is the full status snapshot burst at connection
// start. Later firmware revisions appended fields; Revision gates which of
// the trailing fields are meaningful.
type ExtendedStatusUpdated struct {
	Revision       uint8
	EarType        uint8
	BatteryLeft    uint8
	BatteryRight   uint8
	Coupled        bool
	PrimaryEarbud  uint8
	PlacementLeft  Placement
	PlacementRight Placement

	AdjustSoundSync     bool
	EqualizerType       EqualizerPreset
	TouchpadLocked      bool
	TouchpadOptionLeft  TouchpadAction
	TouchpadOptionRight TouchpadAction
	NoiseControls       NoiseControlMode
	VoiceWakeUp         bool
	VoiceWakeUpLanguage uint8
	SeamlessConnection  bool
	FmmRevision         uint8

	NoiseControlsOff     bool
	NoiseControlsAmbient bool
	NoiseControlsANC     bool

	AmbientSoundLevel   uint8
	NoiseReductionLevel uint8

	AutoSwitchAudioOutput       bool
	DetectConversations         bool
	detectConversationsDuration uint8

	SpeakSeamlessly  bool // rev >= 3
	ExtraHighAmbient bool // rev < 3 or rev >= 6

	SpatialAudio        bool  // rev >= 2
	HearingEnhancements uint8 // rev >= 5
	OutsideDoubleTap    bool  // rev >= 7

	// rev >= 8
	LeftNoiseControlsOff        bool
	LeftNoiseControlsAmbient    bool
	LeftNoiseControlsANC        bool
	NoiseControlsWithOneEarbud  bool
	CustomizeAmbientSoundOn     bool
	CustomizeAmbientVolumeLeft  uint8
	CustomizeAmbientVolumeRight uint8
	AmbientSoundTone            uint8

	SideTone        bool // rev >= 9
	CallPathControl bool // rev >= 10

	batteryCase uint8
	deviceColor [2]uint16
}

func (m *ExtendedStatusUpdated) MsgID() uint8 { return MsgExtendedStatusUpdated }

// BatteryCase returns the case battery percentage, or -1 when unknown.
func (m *ExtendedStatusUpdated) BatteryCase() int {
	if m.batteryCase == 101 {
		return -1
	}
	return int(m.batteryCase)
}

// DeviceColor returns the color code of the preferred earbud.
func (m *ExtendedStatusUpdated) DeviceColor() uint16 {
	if (m.Coupled && m.deviceColor[1] != 0) || (!m.Coupled && m.PrimaryEarbud == 0) {
		return m.deviceColor[1]
	}
	return m.deviceColor[0]
}

// DetectConversationsDuration returns the configured conversation detection
// duration; values below 2 collapse to the firmware default of 1.
func (m *ExtendedStatusUpdated) DetectConversationsDuration() uint8 {
	if m.detectConversationsDuration < 2 {
		return 1
	}
	return m.detectConversationsDuration
}

// VersionInfo reports hardware and firmware versions per earbud.
type VersionInfo struct {
	RightHWVersion      uint8
	LeftHWVersion       uint8
	LeftSWVersionFlags  uint8
	LeftSWVersionDate   uint8
	LeftSWVersionVer    uint8
	RightSWVersionFlags uint8
	RightSWVersionDate  uint8
	RightSWVersionVer   uint8
	LeftTouchFWVersion  uint8
	RightTouchFWVersion uint8
}

func (m *VersionInfo) MsgID() uint8 { return MsgVersionInfo }

// NoiseControlsUpdate is sent when the noise control mode changes on the
// device side.
type NoiseControlsUpdate struct {
	Mode         NoiseControlMode
	WearingState uint8
}

func (m *NoiseControlsUpdate) MsgID() uint8 { return MsgNoiseControlsUpdate }

// VoiceWakeupListening reports whether the voice wake-up engine is
// listening.
type VoiceWakeupListening struct {
	Listening bool
}

func (m *VoiceWakeupListening) MsgID() uint8 { return MsgVoiceWakeupListening }

// TouchUpdated reports the touchpad lock state.
type TouchUpdated struct {
	Locked bool
}

func (m *TouchUpdated) MsgID() uint8 { return MsgTouchUpdated }

// TouchpadOther is the touch-and-hold app-launch event; Action is whatever
// was configured with SetTouchpadOption.
type TouchpadOther struct {
	Action TouchpadAction
}

func (m *TouchpadOther) MsgID() uint8 { return MsgTouchpadOther }

// FotaResult reports the outcome of a firmware-over-the-air update.
type FotaResult struct {
	Result    uint8
	ErrorCode uint8
}

func (m *FotaResult) MsgID() uint8 { return MsgFotaResult }

// UsageReport is a batch of usage counters keyed by a short feature code.
type UsageReport struct {
	Entries map[string]uint32
}

func (m *UsageReport) MsgID() uint8 { return MsgUsageReport }

// MeteringSide holds the battery metering counters for one earbud.
type MeteringSide struct {
	Battery       uint8
	A2DPUsingTime uint32
	EscoOpenTime  uint32
	ANCOnTime     uint32
	AmbientOnTime uint32
}

// MeteringReport carries per-earbud battery usage metering.
type MeteringReport struct {
	Format               uint8
	ConnectedLeft        bool
	ConnectedRight       bool
	TotalBatteryCapacity uint16 // format >= 2
	Left                 MeteringSide
	Right                MeteringSide
}

func (m *MeteringReport) MsgID() uint8 { return MsgMeteringReport }

// UniversalAck acknowledges a configuration request. The body redirects to
// the message ID being acknowledged, with an ID-specific inner body.
type UniversalAck struct {
	RedirectID   uint8
	RedirectBody []byte
}

func (m *UniversalAck) MsgID() uint8 { return MsgUniversalAck }

// NoiseControlsAck is the decoded inner body of a noise-controls
// acknowledgement.
type NoiseControlsAck struct {
	Mode NoiseControlMode
}

func (m *NoiseControlsAck) MsgID() uint8 { return MsgNoiseControls }

// Redirect decodes the acknowledged inner message, or Unknown if the
// redirect ID has no known body format.
func (m *UniversalAck) Redirect() Message {
	switch m.RedirectID {
	case MsgNoiseControls:
		if len(m.RedirectBody) >= 1 {
			return &NoiseControlsAck{Mode: NoiseControlMode(m.RedirectBody[0])}
		}
	}
	return &Unknown{ID: m.RedirectID, Raw: m.RedirectBody}
}

// FindMyEarbudsStop is sent when a chirp sequence ends on the device side.
type FindMyEarbudsStop struct{}

func (m *FindMyEarbudsStop) MsgID() uint8 { return MsgFindMyEarbudsStop }

// ParseMessage decodes a reassembled body into a typed message. Unknown IDs
// decode to *Unknown (never an error) for forward compatibility; known IDs
// with bad bodies fail with *MalformedPayloadError.
func ParseMessage(id uint8, body []byte) (Message, error) {
	switch id {
	case MsgDebugSKU, MsgDebugSerialNumber:
		return parseStringPair(id, body)
	case MsgStatusUpdated:
		return parseStatusUpdated(body)
	case MsgExtendedStatusUpdated:
		return parseExtendedStatusUpdated(body)
	case MsgVersionInfo:
		return parseVersionInfo(body)
	case MsgNoiseControlsUpdate:
		return parseNoiseControlsUpdate(body)
	case MsgVoiceWakeupListening:
		if len(body) < 1 {
			return nil, malformed(id, "expected at least 1 byte, got %d", len(body))
		}
		return &VoiceWakeupListening{Listening: body[0] != 0}, nil
	case MsgTouchUpdated:
		if len(body) < 1 {
			return nil, malformed(id, "expected at least 1 byte, got %d", len(body))
		}
		return &TouchUpdated{Locked: body[0] == 1}, nil
	case MsgTouchpadOther:
		if len(body) < 1 {
			return nil, malformed(id, "expected at least 1 byte, got %d", len(body))
		}
		return &TouchpadOther{Action: TouchpadAction(body[0])}, nil
	case MsgFotaResult:
		if len(body) < 2 {
			return nil, malformed(id, "expected at least 2 bytes, got %d", len(body))
		}
		return &FotaResult{Result: body[0], ErrorCode: body[1]}, nil
	case MsgUsageReport:
		return parseUsageReport(body)
	case MsgMeteringReport:
		return parseMeteringReport(body)
	case MsgUniversalAck:
		if len(body) < 1 {
			return nil, malformed(id, "expected at least 1 byte, got %d", len(body))
		}
		return &UniversalAck{RedirectID: body[0], RedirectBody: body[1:]}, nil
	case MsgFindMyEarbudsStop:
		return &FindMyEarbudsStop{}, nil
	default:
		return &Unknown{ID: id, Raw: body}, nil
	}
}

func parseStringPair(id uint8, body []byte) (Message, error) {
	if len(body)%2 != 0 {
		return nil, malformed(id, "expected an even number of bytes, got %d", len(body))
	}
	n := len(body) / 2
	return &StringPair{id: id, Left: string(body[:n]), Right: string(body[n:])}, nil
}

func parseStatusUpdated(body []byte) (Message, error) {
	if len(body) != 7 {
		return nil, malformed(MsgStatusUpdated, "expected 7 bytes, got %d", len(body))
	}
	return &StatusUpdated{
		Revision:       body[0],
		BatteryLeft:    body[1],
		BatteryRight:   body[2],
		Coupled:        body[3] != 0,
		PrimaryEarbud:  body[4],
		PlacementLeft:  Placement(body[5] >> 4),
		PlacementRight: Placement(body[5] & 0x0F),
		batteryCase:    body[6],
	}, nil
}

func parseExtendedStatusUpdated(body []byte) (Message, error) {
	if len(body) < 28 {
		return nil, malformed(MsgExtendedStatusUpdated, "expected at least 28 bytes, got %d", len(body))
	}

	m := &ExtendedStatusUpdated{
		Revision:       body[0],
		EarType:        body[1],
		BatteryLeft:    body[2],
		BatteryRight:   body[3],
		Coupled:        body[4] != 0,
		PrimaryEarbud:  body[5],
		PlacementLeft:  Placement(body[6] >> 4),
		PlacementRight: Placement(body[6] & 0x0F),
		batteryCase:    body[7],

		AdjustSoundSync:     body[8] != 0,
		EqualizerType:       EqualizerPreset(body[9]),
		TouchpadLocked:      body[10] != 0,
		TouchpadOptionLeft:  TouchpadAction(body[11] >> 4),
		TouchpadOptionRight: TouchpadAction(body[11] & 0x0F),
		NoiseControls:       NoiseControlMode(body[12]),
		VoiceWakeUp:         body[13] != 0,

		VoiceWakeUpLanguage: body[18],
		SeamlessConnection:  body[19] == 0, // negated on the wire
		FmmRevision:         body[20],
	}
	m.deviceColor[0] = binary.LittleEndian.Uint16(body[14:16])
	m.deviceColor[1] = binary.LittleEndian.Uint16(body[16:18])

	bits := body[21]
	m.NoiseControlsOff = bits&0x01 != 0
	m.NoiseControlsAmbient = bits&0x02 != 0
	m.NoiseControlsANC = bits&0x04 != 0
	if m.Revision >= 8 {
		m.LeftNoiseControlsOff = bits&0x10 != 0
		m.LeftNoiseControlsAmbient = bits&0x20 != 0
		m.LeftNoiseControlsANC = bits&0x40 != 0
	}

	if m.Revision < 3 {
		m.ExtraHighAmbient = body[22] != 0
	} else {
		m.SpeakSeamlessly = body[22] != 0
	}

	m.AmbientSoundLevel = body[23]
	m.NoiseReductionLevel = body[24]
	m.AutoSwitchAudioOutput = body[25] != 0
	m.DetectConversations = body[26] != 0
	m.detectConversationsDuration = body[27]

	i := 28
	need := func(n int) bool { return len(body) >= i+n }

	if m.Revision >= 2 {
		if !need(1) {
			return nil, malformed(MsgExtendedStatusUpdated, "truncated at byte %d (revision %d)", i, m.Revision)
		}
		m.SpatialAudio = body[i] != 0
		i++
	}
	if m.Revision >= 5 {
		if !need(1) {
			return nil, malformed(MsgExtendedStatusUpdated, "truncated at byte %d (revision %d)", i, m.Revision)
		}
		m.HearingEnhancements = body[i]
		i++
	}
	if m.Revision >= 6 {
		if !need(1) {
			return nil, malformed(MsgExtendedStatusUpdated, "truncated at byte %d (revision %d)", i, m.Revision)
		}
		// extra-high ambient moved here from byte 22
		m.ExtraHighAmbient = body[i] != 0
		i++
	}
	if m.Revision >= 7 {
		if !need(1) {
			return nil, malformed(MsgExtendedStatusUpdated, "truncated at byte %d (revision %d)", i, m.Revision)
		}
		m.OutsideDoubleTap = body[i] != 0
		i++
	}
	if m.Revision >= 8 {
		if !need(4) {
			return nil, malformed(MsgExtendedStatusUpdated, "truncated at byte %d (revision %d)", i, m.Revision)
		}
		m.NoiseControlsWithOneEarbud = body[i] != 0
		m.CustomizeAmbientSoundOn = body[i+1] != 0
		m.CustomizeAmbientVolumeLeft = body[i+2] >> 4
		m.CustomizeAmbientVolumeRight = body[i+2] & 0x0F
		m.AmbientSoundTone = body[i+3]
		i += 4
	}
	if m.Revision >= 9 {
		if !need(1) {
			return nil, malformed(MsgExtendedStatusUpdated, "truncated at byte %d (revision %d)", i, m.Revision)
		}
		m.SideTone = body[i] != 0
		i++
	}
	if m.Revision >= 10 {
		if !need(1) {
			return nil, malformed(MsgExtendedStatusUpdated, "truncated at byte %d (revision %d)", i, m.Revision)
		}
		m.CallPathControl = body[i] == 0 // negated on the wire
		i++
	}

	if i != len(body) {
		return nil, malformed(MsgExtendedStatusUpdated, "expected %d bytes for revision %d, got %d", i, m.Revision, len(body))
	}
	return m, nil
}

func parseVersionInfo(body []byte) (Message, error) {
	if len(body) < 10 {
		return nil, malformed(MsgVersionInfo, "expected at least 10 bytes, got %d", len(body))
	}
	return &VersionInfo{
		RightHWVersion:      body[0],
		LeftHWVersion:       body[1],
		LeftSWVersionFlags:  body[2],
		LeftSWVersionDate:   body[3],
		LeftSWVersionVer:    body[4],
		RightSWVersionFlags: body[5],
		RightSWVersionDate:  body[6],
		RightSWVersionVer:   body[7],
		LeftTouchFWVersion:  body[8],
		RightTouchFWVersion: body[9],
	}, nil
}

func parseNoiseControlsUpdate(body []byte) (Message, error) {
	if len(body) < 2 {
		return nil, malformed(MsgNoiseControlsUpdate, "expected at least 2 bytes, got %d", len(body))
	}
	return &NoiseControlsUpdate{
		Mode:         NoiseControlMode(body[0]),
		WearingState: body[1],
	}, nil
}

func parseUsageReport(body []byte) (Message, error) {
	if len(body) < 1 {
		return nil, malformed(MsgUsageReport, "expected at least 1 byte, got %d", len(body))
	}
	n := int(body[0])
	if len(body)-1 != 9*n {
		return nil, malformed(MsgUsageReport, "expected %d bytes for %d entries, got %d", 9*n, n, len(body)-1)
	}

	entries := make(map[string]uint32, n)
	for i := 1; i < 1+9*n; i += 9 {
		key := body[i : i+5]
		if end := bytes.IndexByte(key, 0); end >= 0 {
			key = key[:end]
		}
		entries[string(key)] = binary.LittleEndian.Uint32(body[i+5 : i+9])
	}
	return &UsageReport{Entries: entries}, nil
}

func parseMeteringReport(body []byte) (Message, error) {
	if len(body) < 2 {
		return nil, malformed(MsgMeteringReport, "expected at least 2 bytes, got %d", len(body))
	}

	m := &MeteringReport{
		Format:         body[0],
		ConnectedLeft:  body[1]>>4 != 0,
		ConnectedRight: body[1]&0x0F != 0,
	}
	i := 2

	if m.Format >= 2 {
		if len(body) < i+2 {
			return nil, malformed(MsgMeteringReport, "truncated battery capacity")
		}
		m.TotalBatteryCapacity = binary.LittleEndian.Uint16(body[i : i+2])
		i += 2
	}

	for _, side := range []struct {
		connected bool
		dst       *MeteringSide
	}{
		{m.ConnectedLeft, &m.Left},
		{m.ConnectedRight, &m.Right},
	} {
		if !side.connected {
			continue
		}
		if len(body) < i+17 {
			return nil, malformed(MsgMeteringReport, "truncated side metering at byte %d", i)
		}
		side.dst.Battery = body[i]
		side.dst.A2DPUsingTime = binary.LittleEndian.Uint32(body[i+1 : i+5])
		side.dst.EscoOpenTime = binary.LittleEndian.Uint32(body[i+5 : i+9])
		side.dst.ANCOnTime = binary.LittleEndian.Uint32(body[i+9 : i+13])
		side.dst.AmbientOnTime = binary.LittleEndian.Uint32(body[i+13 : i+17])
		i += 17
	}
	return m, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"fmt"
	"sort"
	"strings"
)

// FormatMessageName returns the human-readable name for a message ID.
func FormatMessageName(id uint8) string {
	switch id {
	case MsgDebugSKU:
		return "DEBUG_SKU"
	case MsgDebugAllData:
		return "DEBUG_ALL_DATA"
	case MsgDebugSerialNumber:
		return "DEBUG_SERIAL_NUMBER"
	case MsgLogCoredumpDataSize:
		return "LOG_COREDUMP_DATA_SIZE"
	case MsgLogCoredumpData:
		return "LOG_COREDUMP_DATA"
	case MsgLogCoredumpComplete:
		return "LOG_COREDUMP_COMPLETE"
	case MsgLogTraceStart:
		return "LOG_TRACE_START"
	case MsgLogTraceData:
		return "LOG_TRACE_DATA"
	case MsgLogTraceComplete:
		return "LOG_TRACE_COMPLETE"
	case MsgLogSessionOpen:
		return "LOG_SESSION_OPEN"
	case MsgLogSessionClose:
		return "LOG_SESSION_CLOSE"
	case MsgUsageReport:
		return "USAGE_REPORT"
	case MsgMeteringReport:
		return "METERING_REPORT"
	case MsgUniversalAck:
		return "UNIVERSAL_ACK"
	case MsgStatusUpdated:
		return "STATUS_UPDATED"
	case MsgExtendedStatusUpdated:
		return "EXTENDED_STATUS_UPDATED"
	case MsgVersionInfo:
		return "VERSION_INFO"
	case MsgAmbientDuringCall:
		return "AMBIENT_DURING_CALL"
	case MsgNoiseControlsUpdate:
		return "NOISE_CONTROLS_UPDATE"
	case MsgNoiseControls:
		return "NOISE_CONTROLS"
	case MsgSetEqualizer:
		return "SET_EQUALIZER"
	case MsgLockTouchpad:
		return "LOCK_TOUCHPAD"
	case MsgTouchUpdated:
		return "TOUCH_UPDATED"
	case MsgSetTouchpadOption:
		return "SET_TOUCHPAD_OPTION"
	case MsgTouchpadOther:
		return "TOUCHPAD_OTHER"
	case MsgSetNoiseReduction:
		return "SET_NOISE_REDUCTION"
	case MsgVoiceWakeupListening:
		return "VOICE_WAKEUP_LISTENING"
	case MsgFindMyEarbudsStart:
		return "FIND_MY_EARBUDS_START"
	case MsgFindMyEarbudsStop:
		return "FIND_MY_EARBUDS_STOP"
	case MsgMuteEarbud:
		return "MUTE_EARBUD"
	case MsgUpdateTime:
		return "UPDATE_TIME"
	case MsgFotaResult:
		return "FOTA_RESULT"
	default:
		return "UNKNOWN"
	}
}

// FormatPlacement returns the human-readable name for a placement value.
func FormatPlacement(p Placement) string {
	switch p {
	case PlacementWearing:
		return "wearing"
	case PlacementOutside:
		return "outside"
	case PlacementInCase:
		return "in case"
	default:
		return "unknown"
	}
}

// FormatNoiseControls returns the human-readable name for a noise control
// mode.
func FormatNoiseControls(m NoiseControlMode) string {
	switch m {
	case NoiseControlOff:
		return "off"
	case NoiseControlANC:
		return "anc"
	case NoiseControlAmbient:
		return "ambient"
	default:
		return fmt.Sprintf("unknown (%d)", m)
	}
}

// FormatEqualizer returns the human-readable name for an equalizer preset.
func FormatEqualizer(p EqualizerPreset) string {
	switch p {
	case EqualizerNormal:
		return "normal"
	case EqualizerBassBoost:
		return "bass boost"
	case EqualizerSoft:
		return "soft"
	case EqualizerDynamic:
		return "dynamic"
	case EqualizerClear:
		return "clear"
	case EqualizerTrebleBoost:
		return "treble boost"
	default:
		return fmt.Sprintf("unknown (%d)", p)
	}
}

// FormatMessage renders a decoded message for log output.
func FormatMessage(m Message) string {
	head := fmt.Sprintf("%s (0x%02X)", FormatMessageName(m.MsgID()), m.MsgID())

	switch v := m.(type) {
	case *StatusUpdated:
		return fmt.Sprintf("%s battery L=%d%% R=%d%% case=%d%% placement L=%s R=%s",
			head, v.BatteryLeft, v.BatteryRight, v.BatteryCase(),
			FormatPlacement(v.PlacementLeft), FormatPlacement(v.PlacementRight))
	case *ExtendedStatusUpdated:
		return fmt.Sprintf("%s rev=%d battery L=%d%% R=%d%% case=%d%% placement L=%s R=%s noise=%s eq=%s",
			head, v.Revision, v.BatteryLeft, v.BatteryRight, v.BatteryCase(),
			FormatPlacement(v.PlacementLeft), FormatPlacement(v.PlacementRight),
			FormatNoiseControls(v.NoiseControls), FormatEqualizer(v.EqualizerType))
	case *VersionInfo:
		return fmt.Sprintf("%s hw L=%d R=%d sw L=%d.%d.%d R=%d.%d.%d touch L=%d R=%d",
			head, v.LeftHWVersion, v.RightHWVersion,
			v.LeftSWVersionFlags, v.LeftSWVersionDate, v.LeftSWVersionVer,
			v.RightSWVersionFlags, v.RightSWVersionDate, v.RightSWVersionVer,
			v.LeftTouchFWVersion, v.RightTouchFWVersion)
	case *NoiseControlsUpdate:
		return fmt.Sprintf("%s mode=%s wearing=%d", head, FormatNoiseControls(v.Mode), v.WearingState)
	case *VoiceWakeupListening:
		return fmt.Sprintf("%s listening=%t", head, v.Listening)
	case *TouchUpdated:
		return fmt.Sprintf("%s locked=%t", head, v.Locked)
	case *TouchpadOther:
		return fmt.Sprintf("%s action=%d", head, v.Action)
	case *FotaResult:
		return fmt.Sprintf("%s result=%d error=0x%02X", head, v.Result, v.ErrorCode)
	case *StringPair:
		return fmt.Sprintf("%s L=%q R=%q", head, v.Left, v.Right)
	case *UniversalAck:
		return fmt.Sprintf("%s redirect=%s (0x%02X)", head, FormatMessageName(v.RedirectID), v.RedirectID)
	case *UsageReport:
		keys := make([]string, 0, len(v.Entries))
		for k := range v.Entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v.Entries[k]))
		}
		return fmt.Sprintf("%s %s", head, strings.Join(parts, " "))
	case *MeteringReport:
		return fmt.Sprintf("%s format=%d battery L=%d%% R=%d%%", head, v.Format, v.Left.Battery, v.Right.Battery)
	case *Malformed:
		return fmt.Sprintf("%s malformed: %v", head, v.Err)
	case *Unknown:
		return fmt.Sprintf("%s %s", head, FormatHex(v.Raw))
	default:
		return head
	}
}

// FormatStatus renders the aggregated status snapshot.
func FormatStatus(s DeviceStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Battery:        left %d%%, right %d%%, case %s\n",
		s.BatteryLeft, s.BatteryRight, formatCaseBattery(s.BatteryCase))
	fmt.Fprintf(&b, "Placement:      left %s, right %s\n",
		FormatPlacement(s.PlacementLeft), FormatPlacement(s.PlacementRight))
	fmt.Fprintf(&b, "Noise controls: %s\n", FormatNoiseControls(s.NoiseControls))
	fmt.Fprintf(&b, "Equalizer:      %s\n", FormatEqualizer(s.EqualizerType))
	fmt.Fprintf(&b, "Touchpad:       locked=%t actions L=%d R=%d\n",
		s.TouchpadLocked, s.TouchpadOptionLeft, s.TouchpadOptionRight)
	if s.Version != nil {
		fmt.Fprintf(&b, "Firmware:       left %d.%d.%d, right %d.%d.%d\n",
			s.Version.LeftSWVersionFlags, s.Version.LeftSWVersionDate, s.Version.LeftSWVersionVer,
			s.Version.RightSWVersionFlags, s.Version.RightSWVersionDate, s.Version.RightSWVersionVer)
	}
	return b.String()
}

func formatCaseBattery(v int) string {
	if v < 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d%%", v)
}

// FormatHex renders bytes as a spaced hex dump on one line.
func FormatHex(data []byte) string {
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

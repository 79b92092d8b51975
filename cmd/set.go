// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/chirp-tools/budsctl/pkg/budspro"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change earbud settings",
}

var setNoiseCmd = &cobra.Command{
	Use:   "noise <off|anc|ambient>",
	Short: "Set the noise control mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetNoise,
}

var setEqualizerCmd = &cobra.Command{
	Use:   "equalizer <normal|bass|soft|dynamic|clear|treble>",
	Short: "Set the sound equalizer preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetEqualizer,
}

var setTouchpadLockCmd = &cobra.Command{
	Use:   "touchpad-lock <on|off>",
	Short: "Lock or unlock the touchpads",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetTouchpadLock,
}

var setTouchpadCmd = &cobra.Command{
	Use:   "touchpad <left-action> <right-action>",
	Short: "Bind the touch-and-hold actions",
	Long: `Bind the touch-and-hold action of each earbud.

Actions: anc, volume, spotify, app5, app6.`,
	Args: cobra.ExactArgs(2),
	RunE: runSetTouchpad,
}

var setTimeCmd = &cobra.Command{
	Use:   "time",
	Short: "Push the current wall clock to the earbuds",
	Args:  cobra.NoArgs,
	RunE:  runSetTime,
}

func init() {
	setCmd.AddCommand(setNoiseCmd)
	setCmd.AddCommand(setEqualizerCmd)
	setCmd.AddCommand(setTouchpadLockCmd)
	setCmd.AddCommand(setTouchpadCmd)
	setCmd.AddCommand(setTimeCmd)
	rootCmd.AddCommand(setCmd)
}

func parseNoiseMode(s string) (budspro.NoiseControlMode, error) {
	switch strings.ToLower(s) {
	case "off":
		return budspro.NoiseControlOff, nil
	case "anc":
		return budspro.NoiseControlANC, nil
	case "ambient":
		return budspro.NoiseControlAmbient, nil
	default:
		return 0, fmt.Errorf("unknown noise control mode %q (off, anc, ambient)", s)
	}
}

func parseEqualizerPreset(s string) (budspro.EqualizerPreset, error) {
	switch strings.ToLower(s) {
	case "normal":
		return budspro.EqualizerNormal, nil
	case "bass":
		return budspro.EqualizerBassBoost, nil
	case "soft":
		return budspro.EqualizerSoft, nil
	case "dynamic":
		return budspro.EqualizerDynamic, nil
	case "clear":
		return budspro.EqualizerClear, nil
	case "treble":
		return budspro.EqualizerTrebleBoost, nil
	default:
		return 0, fmt.Errorf("unknown equalizer preset %q", s)
	}
}

func parseTouchpadAction(s string) (budspro.TouchpadAction, error) {
	switch strings.ToLower(s) {
	case "anc":
		return budspro.TouchpadActionANC, nil
	case "volume":
		return budspro.TouchpadActionVolume, nil
	case "spotify":
		return budspro.TouchpadActionSpotify, nil
	case "app5":
		return budspro.TouchpadActionApp5, nil
	case "app6":
		return budspro.TouchpadActionApp6, nil
	default:
		return 0, fmt.Errorf("unknown touchpad action %q", s)
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func runSetNoise(cmd *cobra.Command, args []string) error {
	mode, err := parseNoiseMode(args[0])
	if err != nil {
		return err
	}

	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.SetNoiseControls(mode, requestTimeout); err != nil {
		return err
	}
	fmt.Printf("Noise controls: %s\n", budspro.FormatNoiseControls(mode))
	return nil
}

func runSetEqualizer(cmd *cobra.Command, args []string) error {
	preset, err := parseEqualizerPreset(args[0])
	if err != nil {
		return err
	}

	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.SetEqualizer(preset, requestTimeout); err != nil {
		return err
	}
	fmt.Printf("Equalizer: %s\n", budspro.FormatEqualizer(preset))
	return nil
}

func runSetTouchpadLock(cmd *cobra.Command, args []string) error {
	locked, err := parseOnOff(args[0])
	if err != nil {
		return err
	}

	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.SetTouchpadLock(locked, requestTimeout); err != nil {
		return err
	}
	fmt.Printf("Touchpad locked: %t\n", locked)
	return nil
}

func runSetTouchpad(cmd *cobra.Command, args []string) error {
	left, err := parseTouchpadAction(args[0])
	if err != nil {
		return err
	}
	right, err := parseTouchpadAction(args[1])
	if err != nil {
		return err
	}

	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.SetTouchpadOption(left, right, requestTimeout); err != nil {
		return err
	}
	fmt.Printf("Touch and hold: left=%s right=%s\n", strings.ToLower(args[0]), strings.ToLower(args[1]))
	return nil
}

func runSetTime(cmd *cobra.Command, args []string) error {
	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	now := time.Now()
	if err := dev.UpdateTime(now); err != nil {
		return err
	}
	fmt.Printf("Time set to %s\n", now.Format(time.RFC3339))
	return nil
}

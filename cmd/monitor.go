// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chirp-tools/budsctl/pkg/budspro"
	"github.com/spf13/cobra"
)

var monitorOutput string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display decoded messages as they arrive",
	Long: `Continuously decode and display protocol messages as they arrive.

Each message is shown with a timestamp, its name and decoded fields. Usage
reports are acknowledged so the firmware stops queueing them.

With --output, every valid frame is additionally appended to a CBOR capture
file that can be decoded offline with the replay command.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorOutput, "output", "o", "", "Capture file to append frames to")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	var opts []budspro.Option
	var captureFile *os.File
	if monitorOutput != "" {
		f, err := os.OpenFile(monitorOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open capture file: %w", err)
		}
		captureFile = f
		defer f.Close()

		cw := budspro.NewCaptureWriter(f)
		opts = append(opts, budspro.WithFrameTap(func(fr budspro.Frame) {
			if err := cw.WriteFrame(fr); err != nil {
				log.Warn().Err(err).Msg("capture write failed")
			}
		}))
	}

	dev, connInfo, err := openDevice(opts...)
	if err != nil {
		return err
	}
	defer dev.Close()

	fmt.Printf("Budsctl - Message Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if captureFile != nil {
		fmt.Printf("Capture: %s\n", monitorOutput)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	sub := dev.Subscribe(budspro.MatchAny, budspro.WithBuffer(256))
	defer sub.Close()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	for {
		select {
		case <-sigc:
			return nil
		case m, ok := <-sub.Messages():
			if !ok {
				return fmt.Errorf("connection lost")
			}
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), budspro.FormatMessage(m))

			// The firmware resends usage reports until acknowledged.
			if _, isUsage := m.(*budspro.UsageReport); isUsage {
				if err := dev.Send(budspro.UsageReportResponse(0)); err != nil {
					log.Warn().Err(err).Msg("usage report ack failed")
				}
			}
		}
	}
}

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Decode a capture file recorded with monitor --output",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r := budspro.NewCaptureReader(f)
	asm := &budspro.FragmentAssembler{}
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read capture: %w", err)
		}

		ts := rec.Timestamp.Format("15:04:05.000")
		fr, err := rec.Frame()
		if err != nil {
			fmt.Printf("[%s] undecodable frame: %v (%s)\n", ts, err, budspro.FormatHex(rec.Raw))
			continue
		}

		msg, err := asm.Push(fr)
		if err != nil {
			fmt.Printf("[%s] %v\n", ts, err)
		}
		if msg == nil {
			continue
		}

		m, err := budspro.ParseMessage(msg.ID, msg.Payload)
		if err != nil {
			m = &budspro.Malformed{ID: msg.ID, Raw: msg.Payload, Err: err}
		}
		fmt.Printf("[%s] %s\n", ts, budspro.FormatMessage(m))
	}
}

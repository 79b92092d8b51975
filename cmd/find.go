// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	findMuteLeft  bool
	findMuteRight bool
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Make the earbuds chirp until interrupted",
	Long: `Start the find-my-earbuds chirp and keep it running until Ctrl+C.

Individual earbuds can be muted while the chirp runs with --mute-left and
--mute-right. The chirp is stopped cleanly on exit.`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().BoolVar(&findMuteLeft, "mute-left", false, "Mute the left earbud")
	findCmd.Flags().BoolVar(&findMuteRight, "mute-right", false, "Mute the right earbud")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.StartFindMyEarbuds(requestTimeout); err != nil {
		return err
	}
	if findMuteLeft || findMuteRight {
		if err := dev.MuteEarbud(findMuteLeft, findMuteRight, requestTimeout); err != nil {
			return err
		}
	}

	fmt.Println("Chirping... press Ctrl+C to stop")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case <-sigc:
	case <-dev.Done():
		return fmt.Errorf("connection lost")
	}

	return dev.StopFindMyEarbuds(requestTimeout)
}

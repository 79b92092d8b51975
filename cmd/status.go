// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"errors"
	"fmt"

	"github.com/chirp-tools/budsctl/pkg/budspro"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current earbud status",
	Long: `Connect, wait for the initial status burst, and print a snapshot.

The earbuds push their full status right after the connection opens; this
command waits for that burst (bounded by --timeout) and renders battery,
placement, noise controls, equalizer and touchpad state.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dev, connInfo, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	log.Debug().Str("connection", connInfo).Msg("connected")

	s, err := dev.Status().WaitFor(func(s budspro.DeviceStatus) bool {
		return s.HasExtended
	}, requestTimeout)
	if err != nil {
		if errors.Is(err, budspro.ErrTimeout) {
			return fmt.Errorf("no status received within %s (are the earbuds connected?)", requestTimeout)
		}
		return err
	}

	fmt.Print(budspro.FormatStatus(s))
	return nil
}

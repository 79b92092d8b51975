// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	deviceNode string
	baudRate   int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Global behavior flags
	configPath     string
	requestTimeout time.Duration
	verbose        bool

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "budsctl",
	Short: "Galaxy Buds command line client",
	Long: `Budsctl - A CLI tool for monitoring and controlling Galaxy Buds earbuds.

Talks the proprietary binary protocol over the RFCOMM serial channel: bind the
earbuds to a tty first (rfcomm bind 0 <MAC> 1), then point --device at the
node. Alternatively connect through a running budsctl bridge with --url.

Connection modes:
  Serial:    --device /dev/rfcomm0
  WebSocket: --url ws://host/ws [--username user]

For WebSocket authentication, the password is read from the BUDSCTL_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Defaults for all connection flags can be placed in ~/.config/budsctl.toml.`,
	Version:           "1.0.0",
	PersistentPreRunE: setupRoot,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&deviceNode, "device", "d", "", "Serial device node (e.g. /dev/rfcomm0)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/budsctl.toml)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 5*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// setupRoot initializes logging and fills unset flags from the config file.
func setupRoot(cmd *cobra.Command, args []string) error {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	log = zerolog.New(output).With().Timestamp().Logger().Level(level)

	return applyConfig(cmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

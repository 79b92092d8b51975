// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors
//
// Budsctl - Galaxy Buds command line client
//
// A CLI tool for monitoring and controlling Galaxy Buds earbuds over their
// proprietary binary protocol, via an RFCOMM serial node or a WebSocket
// bridge.

package main

import (
	"os"

	"github.com/chirp-tools/budsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

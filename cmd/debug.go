// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Query debug identifiers from the earbuds",
}

var debugSKUCmd = &cobra.Command{
	Use:   "sku",
	Short: "Print the SKU (product code) of both earbuds",
	RunE:  runDebugSKU,
}

var debugSerialCmd = &cobra.Command{
	Use:   "serial",
	Short: "Print the serial number of both earbuds",
	RunE:  runDebugSerial,
}

func init() {
	debugCmd.AddCommand(debugSKUCmd)
	debugCmd.AddCommand(debugSerialCmd)
	rootCmd.AddCommand(debugCmd)
}

func runDebugSKU(cmd *cobra.Command, args []string) error {
	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	left, right, err := dev.DebugSKU(requestTimeout)
	if err != nil {
		return err
	}
	fmt.Printf("Left:  %s\nRight: %s\n", left, right)
	return nil
}

func runDebugSerial(cmd *cobra.Command, args []string) error {
	dev, _, err := openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	left, right, err := dev.DebugSerialNumber(requestTimeout)
	if err != nil {
		return err
	}
	fmt.Printf("Left:  %s\nRight: %s\n", left, right)
	return nil
}

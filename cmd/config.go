// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// fileConfig mirrors ~/.config/budsctl.toml. Every key is optional; only
// keys the file defines override built-in defaults, and flags given on the
// command line always win.
type fileConfig struct {
	Device      string `toml:"device"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
	Timeout     string `toml:"timeout"`
}

// configDefaults is the parsed config file, applied to flags the user left
// unset.
type configDefaults struct {
	raw  fileConfig
	meta toml.MetaData
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "budsctl.toml")
}

// loadConfig parses the config file at path. A missing file at the default
// location is not an error; an explicitly named file must exist.
func loadConfig(path string, explicit bool) (*configDefaults, error) {
	if path == "" {
		return nil, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &configDefaults{raw: raw, meta: meta}, nil
}

// applyConfig fills flags the user did not pass from the config file.
func applyConfig(cmd *cobra.Command) error {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	flags := cmd.Flags()

	if cfg.meta.IsDefined("device") && !flags.Changed("device") {
		deviceNode = strings.TrimSpace(cfg.raw.Device)
	}
	if cfg.meta.IsDefined("baud") && !flags.Changed("baud") {
		baudRate = cfg.raw.Baud
	}
	if cfg.meta.IsDefined("url") && !flags.Changed("url") {
		wsURL = strings.TrimSpace(cfg.raw.URL)
	}
	if cfg.meta.IsDefined("username") && !flags.Changed("username") {
		wsUsername = strings.TrimSpace(cfg.raw.Username)
	}
	if cfg.meta.IsDefined("no_ssl_verify") && !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = cfg.raw.NoSSLVerify
	}
	if cfg.meta.IsDefined("timeout") && !flags.Changed("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(cfg.raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout in %s: %w", path, err)
		}
		requestTimeout = d
	}

	log.Debug().Str("path", path).Msg("applied config file")
	return nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budsctl.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_AllKeys(t *testing.T) {
	path := writeTempConfig(t, `
device = "/dev/rfcomm0"
baud = 9600
url = "wss://bridge.local/ws"
username = "alice"
no_ssl_verify = true
timeout = "2s"
`)

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.raw.Device != "/dev/rfcomm0" || cfg.raw.Baud != 9600 {
		t.Errorf("serial keys mismatch: %+v", cfg.raw)
	}
	if cfg.raw.URL != "wss://bridge.local/ws" || cfg.raw.Username != "alice" || !cfg.raw.NoSSLVerify {
		t.Errorf("websocket keys mismatch: %+v", cfg.raw)
	}
	if cfg.raw.Timeout != "2s" {
		t.Errorf("timeout mismatch: %q", cfg.raw.Timeout)
	}
	for _, key := range []string{"device", "baud", "url", "username", "no_ssl_verify", "timeout"} {
		if !cfg.meta.IsDefined(key) {
			t.Errorf("key %s not marked as defined", key)
		}
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := writeTempConfig(t, `device = "/dev/rfcomm1"`)

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.meta.IsDefined("device") {
		t.Error("device must be defined")
	}
	// Unset keys must not override flag defaults.
	for _, key := range []string{"baud", "url", "timeout"} {
		if cfg.meta.IsDefined(key) {
			t.Errorf("key %s wrongly marked as defined", key)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	// The default-location config is optional.
	cfg, err := loadConfig(path, false)
	if err != nil || cfg != nil {
		t.Errorf("implicit missing file: cfg=%v err=%v, want nil/nil", cfg, err)
	}

	// An explicitly named config must exist.
	if _, err := loadConfig(path, true); err == nil {
		t.Error("explicit missing file must fail")
	}
}

func TestLoadConfig_BadTOML(t *testing.T) {
	path := writeTempConfig(t, `device = [broken`)
	if _, err := loadConfig(path, true); err == nil {
		t.Error("malformed TOML must fail")
	}
}

package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfig(t, `
listen_port = 6000
dest_addr = "192.168.1.20"
dest_port = 6000
csi_len = 32
window_capacity = 64
capture_path = "/var/log/csi/session.csicap"
refresh_interval = "25ms"
playback_rate = 0.5
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.ListenPort != 6000 {
		t.Fatalf("ListenPort = %d, want 6000", cfg.ListenPort)
	}
	if cfg.DestAddr != "192.168.1.20" {
		t.Fatalf("DestAddr = %q", cfg.DestAddr)
	}
	if cfg.CSILen != 32 {
		t.Fatalf("CSILen = %d, want 32", cfg.CSILen)
	}
	if cfg.WindowCapacity != 64 {
		t.Fatalf("WindowCapacity = %d, want 64", cfg.WindowCapacity)
	}
	if cfg.CapturePath != "/var/log/csi/session.csicap" {
		t.Fatalf("CapturePath = %q", cfg.CapturePath)
	}
	if cfg.RefreshInterval != 25*time.Millisecond {
		t.Fatalf("RefreshInterval = %v, want 25ms", cfg.RefreshInterval)
	}
	if cfg.PlaybackRate != 0.5 {
		t.Fatalf("PlaybackRate = %g, want 0.5", cfg.PlaybackRate)
	}
	// Untouched fields keep their defaults.
	if cfg.TAHistory != DefaultConfig().TAHistory {
		t.Fatalf("TAHistory = %d, want default", cfg.TAHistory)
	}
}

func TestApplyFileConfigRespectsFlags(t *testing.T) {
	fc := FileConfig{ListenPort: 6000, CSILen: 32}

	cfg := DefaultConfig()
	changed := map[string]bool{"port": true}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.ListenPort != DefaultConfig().ListenPort {
		t.Fatalf("ListenPort = %d, flag should have won", cfg.ListenPort)
	}
	if cfg.CSILen != 32 {
		t.Fatalf("CSILen = %d, want 32 from file", cfg.CSILen)
	}
}

func TestLoadFileConfigBadToml(t *testing.T) {
	path := writeConfig(t, "listen_port = [not toml")
	if _, err := LoadFileConfig(path); err == nil {
		t.Fatal("LoadFileConfig accepted invalid TOML")
	}
}

func TestLoadFileConfigBadDuration(t *testing.T) {
	path := writeConfig(t, `refresh_interval = "soon"`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err == nil {
		t.Fatal("ApplyFileConfig accepted an unparseable duration")
	}
}

func TestFileExists(t *testing.T) {
	path := writeConfig(t, "")
	if !FileExists(path) {
		t.Fatal("FileExists(existing) = false")
	}
	if FileExists(filepath.Join(t.TempDir(), "missing.toml")) {
		t.Fatal("FileExists(missing) = true")
	}
}

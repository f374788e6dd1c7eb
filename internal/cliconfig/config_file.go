package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly.
type FileConfig struct {
	ListenPort      int     `toml:"listen_port"`
	DestAddr        string  `toml:"dest_addr"`
	DestPort        int     `toml:"dest_port"`
	CSILen          int     `toml:"csi_len"`
	WindowCapacity  int     `toml:"window_capacity"`
	TAHistory       int     `toml:"ta_history"`
	CapturePath     string  `toml:"capture_path"`
	QueueDepth      int     `toml:"queue_depth"`
	RefreshInterval string  `toml:"refresh_interval"`
	PlaybackRate    float64 `toml:"playback_rate"`
	Channels        int     `toml:"channels"`
	SymbolInterval  string  `toml:"symbol_interval"`
	Count           int     `toml:"count"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.csiplot/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".csiplot", "config.toml")
	}
	return ""
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setInt("port", fc.ListenPort, &cfg.ListenPort)
	s.setString("dest-addr", fc.DestAddr, &cfg.DestAddr)
	s.setInt("dest-port", fc.DestPort, &cfg.DestPort)
	s.setInt("csi-len", fc.CSILen, &cfg.CSILen)
	s.setInt("capacity", fc.WindowCapacity, &cfg.WindowCapacity)
	s.setInt("ta-history", fc.TAHistory, &cfg.TAHistory)
	s.setString("capture", fc.CapturePath, &cfg.CapturePath)
	s.setInt("queue-depth", fc.QueueDepth, &cfg.QueueDepth)
	s.setFloat("rate", fc.PlaybackRate, &cfg.PlaybackRate)
	s.setInt("channels", fc.Channels, &cfg.Channels)
	s.setInt("count", fc.Count, &cfg.Count)

	if err := s.setDuration("refresh", fc.RefreshInterval, &cfg.RefreshInterval); err != nil {
		return err
	}
	return s.setDuration("interval", fc.SymbolInterval, &cfg.SymbolInterval)
}

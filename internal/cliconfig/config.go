// Package cliconfig loads csiplot configuration with the precedence
// defaults < config file < environment < flags.
package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// Config holds all settings for the csiplot commands. Everything is fixed
// before a process starts; nothing is renegotiated at runtime.
type Config struct {
	// ListenPort is the UDP port the consumer binds.
	ListenPort int

	// DestAddr and DestPort locate the consumer from the producer side.
	DestAddr string
	DestPort int

	// CSILen is the subcarrier count per sample; it must match on both
	// ends and stays constant for the life of a session.
	CSILen int

	// WindowCapacity bounds the reassembly buffer per channel.
	WindowCapacity int

	// TAHistory bounds the timing advance history kept for display.
	TAHistory int

	// CapturePath is the capture file written in live mode; empty
	// disables recording.
	CapturePath string

	// QueueDepth bounds the recorder's write queue.
	QueueDepth int

	// RefreshInterval is the render cadence in live mode.
	RefreshInterval time.Duration

	// PlaybackRate scales replay pacing; 0 replays as fast as possible.
	PlaybackRate float64

	// Channels and SymbolInterval drive the synthetic producer.
	Channels       int
	SymbolInterval time.Duration

	// Count limits the synthetic producer's ticks; 0 means run until
	// interrupted.
	Count int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenPort:      5000,
		DestAddr:        "127.0.0.1",
		DestPort:        5000,
		CSILen:          64,
		WindowCapacity:  256,
		TAHistory:       512,
		QueueDepth:      1024,
		RefreshInterval: 50 * time.Millisecond,
		PlaybackRate:    1,
		Channels:        2,
		SymbolInterval:  10 * time.Millisecond,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen port %d out of range", c.ListenPort)
	}
	if c.DestPort < 1 || c.DestPort > 65535 {
		return fmt.Errorf("destination port %d out of range", c.DestPort)
	}
	if c.DestAddr == "" {
		return fmt.Errorf("destination address is required")
	}
	if c.CSILen < 1 || c.CSILen > telemetry.MaxCSILen {
		return fmt.Errorf("csi length %d out of range [1,%d]", c.CSILen, telemetry.MaxCSILen)
	}
	if c.WindowCapacity < 1 {
		return fmt.Errorf("window capacity must be positive")
	}
	if c.TAHistory < 1 {
		return fmt.Errorf("ta history must be positive")
	}
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue depth must be positive")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.PlaybackRate < 0 {
		return fmt.Errorf("playback rate must not be negative")
	}
	if c.Channels < 1 || c.Channels > 256 {
		return fmt.Errorf("channel count %d out of range [1,256]", c.Channels)
	}
	if c.SymbolInterval <= 0 {
		return fmt.Errorf("symbol interval must be positive")
	}
	return nil
}

// Dest returns the producer's destination as "host:port".
func (c *Config) Dest() string {
	return fmt.Sprintf("%s:%d", c.DestAddr, c.DestPort)
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not
// changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if
// valid. Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

package cliconfig

import "os"

// ApplyEnvConfig applies CSIPLOT_* environment variables to the Config.
// Environment overrides the config file but loses to explicitly set flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString("port", os.Getenv("CSIPLOT_LISTEN_PORT"), &cfg.ListenPort); err != nil {
		return err
	}
	s.setString("dest-addr", os.Getenv("CSIPLOT_DEST_ADDR"), &cfg.DestAddr)
	if err := s.setIntFromString("dest-port", os.Getenv("CSIPLOT_DEST_PORT"), &cfg.DestPort); err != nil {
		return err
	}
	if err := s.setIntFromString("csi-len", os.Getenv("CSIPLOT_CSI_LEN"), &cfg.CSILen); err != nil {
		return err
	}
	if err := s.setIntFromString("capacity", os.Getenv("CSIPLOT_WINDOW_CAPACITY"), &cfg.WindowCapacity); err != nil {
		return err
	}
	if err := s.setIntFromString("ta-history", os.Getenv("CSIPLOT_TA_HISTORY"), &cfg.TAHistory); err != nil {
		return err
	}
	s.setString("capture", os.Getenv("CSIPLOT_CAPTURE_PATH"), &cfg.CapturePath)
	if err := s.setIntFromString("queue-depth", os.Getenv("CSIPLOT_QUEUE_DEPTH"), &cfg.QueueDepth); err != nil {
		return err
	}
	if err := s.setFloatFromString("rate", os.Getenv("CSIPLOT_PLAYBACK_RATE"), &cfg.PlaybackRate); err != nil {
		return err
	}
	if err := s.setIntFromString("channels", os.Getenv("CSIPLOT_CHANNELS"), &cfg.Channels); err != nil {
		return err
	}
	if err := s.setDuration("refresh", os.Getenv("CSIPLOT_REFRESH_INTERVAL"), &cfg.RefreshInterval); err != nil {
		return err
	}
	return s.setDuration("interval", os.Getenv("CSIPLOT_SYMBOL_INTERVAL"), &cfg.SymbolInterval)
}

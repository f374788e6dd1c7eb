package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/inss-lab/udp-5g-csi-plot/internal/cliconfig"
)

const longHelp = `Live visualization and replay of per-symbol CSI and timing advance
telemetry streamed over UDP from a software-defined radio physical layer.

The producer fires one datagram per processed symbol and never waits for the
network; csiplot reassembles the lossy stream into an ordered window, renders
it, and optionally records every accepted sample for offline replay.`

const exampleUsage = `  csiplot listen --port 5000 --csi-len 64 --capture session.csicap
  csiplot replay session.csicap --rate 1
  csiplot send --dest-addr 10.0.0.7 --dest-port 5000 --channels 2`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	log := cliconfig.Logger()

	var cfgPath string
	root := &cobra.Command{
		Use:     "csiplot",
		Short:   "Stream, visualize and replay CSI/TA telemetry over UDP",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.csiplot/config.toml)")

	root.AddCommand(
		newListenCmd(&cfgPath),
		newReplayCmd(&cfgPath),
		newSendCmd(&cfgPath),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("csiplot")
		os.Exit(1)
	}
}

// finishConfig applies the file and environment layers to cfg, honoring
// flags that were set explicitly, then validates the result.
func finishConfig(cmd *cobra.Command, cfgPath string, cfg *cliconfig.Config) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	return cfg.Validate()
}

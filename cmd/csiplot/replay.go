package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inss-lab/udp-5g-csi-plot/internal/cliconfig"
	"github.com/inss-lab/udp-5g-csi-plot/internal/render"
	"github.com/inss-lab/udp-5g-csi-plot/internal/replay"
	"github.com/inss-lab/udp-5g-csi-plot/internal/window"
	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

func newReplayCmd(cfgPath *string) *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var follow bool

	cmd := &cobra.Command{
		Use:   "replay <capture-file>",
		Short: "Replay a recorded session through the live display path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliconfig.Logger()

			if err := finishConfig(cmd, *cfgPath, &cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			l := &replay.Loader{
				Window:   window.New(cfg.WindowCapacity, cfg.TAHistory),
				Renderer: render.NewConsole(os.Stdout),
				Rate:     cfg.PlaybackRate,
				Follow:   follow,
				Log:      log,
			}

			n, err := l.Run(ctx, args[0])
			switch {
			case err == nil:
				log.Info().Int("records", n).Msg("replay finished")
				return nil
			case errors.Is(err, context.Canceled):
				log.Info().Int("records", n).Msg("replay interrupted")
				return nil
			default:
				var cerr *telemetry.CorruptLogError
				if errors.As(err, &cerr) {
					// Partial replay is useful; surface the damage as a
					// warning, not a failure.
					log.Warn().Int("records", cerr.Replayed).Int64("offset", cerr.Offset).
						Msg("capture file is corrupt past this point, stopping replay")
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().Float64Var(&cfg.PlaybackRate, "rate", cfg.PlaybackRate, "playback speed relative to recorded timing (0 = as fast as possible)")
	cmd.Flags().IntVar(&cfg.WindowCapacity, "capacity", cfg.WindowCapacity, "samples retained per channel")
	cmd.Flags().IntVar(&cfg.TAHistory, "ta-history", cfg.TAHistory, "timing advance values retained for display")
	cmd.Flags().BoolVar(&follow, "follow", false, "keep replaying as the capture file grows")

	return cmd
}

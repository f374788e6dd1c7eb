package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inss-lab/udp-5g-csi-plot/internal/app"
	"github.com/inss-lab/udp-5g-csi-plot/internal/capture"
	"github.com/inss-lab/udp-5g-csi-plot/internal/cliconfig"
	"github.com/inss-lab/udp-5g-csi-plot/internal/render"
	"github.com/inss-lab/udp-5g-csi-plot/internal/transport"
	"github.com/inss-lab/udp-5g-csi-plot/internal/window"
	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

func newListenCmd(cfgPath *string) *cobra.Command {
	cfg := cliconfig.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive live CSI/TA telemetry, render it and optionally record it",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliconfig.Logger()

			if err := finishConfig(cmd, *cfgPath, &cfg); err != nil {
				return err
			}

			codec, err := telemetry.NewCodec(cfg.CSILen)
			if err != nil {
				return err
			}

			// Bind and open the capture file up front: resource
			// acquisition failures are fatal at startup, everything
			// after this point is best effort.
			receiver, err := transport.NewReceiver(cfg.ListenPort, codec, log)
			if err != nil {
				return err
			}
			defer receiver.Close()

			var recorder *capture.Recorder
			if cfg.CapturePath != "" {
				recorder, err = capture.NewRecorder(cfg.CapturePath, codec, cfg.QueueDepth, log)
				if err != nil {
					return err
				}
				log.Info().Str("file", cfg.CapturePath).Msg("recording accepted samples")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("addr", receiver.LocalAddr().String()).
				Int("csi_len", cfg.CSILen).
				Int("capacity", cfg.WindowCapacity).
				Msg("listening for telemetry")

			p := app.New(
				receiver,
				window.New(cfg.WindowCapacity, cfg.TAHistory),
				recorder,
				render.NewConsole(os.Stdout),
				cfg.RefreshInterval,
				log,
			)
			return p.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&cfg.ListenPort, "port", cfg.ListenPort, "UDP port to bind")
	cmd.Flags().IntVar(&cfg.CSILen, "csi-len", cfg.CSILen, "CSI vector length, must match the producer")
	cmd.Flags().IntVar(&cfg.WindowCapacity, "capacity", cfg.WindowCapacity, "samples retained per channel")
	cmd.Flags().IntVar(&cfg.TAHistory, "ta-history", cfg.TAHistory, "timing advance values retained for display")
	cmd.Flags().StringVar(&cfg.CapturePath, "capture", cfg.CapturePath, "capture file to record accepted samples (empty disables)")
	cmd.Flags().IntVar(&cfg.QueueDepth, "queue-depth", cfg.QueueDepth, "recorder queue depth before drop-oldest")
	cmd.Flags().DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "render refresh interval")

	return cmd
}

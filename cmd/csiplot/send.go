package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inss-lab/udp-5g-csi-plot/internal/cliconfig"
	"github.com/inss-lab/udp-5g-csi-plot/internal/simulate"
	"github.com/inss-lab/udp-5g-csi-plot/internal/transport"
	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

func newSendCmd(cfgPath *string) *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var (
		dropEvery int
		dupEvery  int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Stream synthetic CSI/TA telemetry to a consumer",
		Long: `Stands in for the physical-layer process: emits plausible CSI vectors and a
drifting timing advance at a fixed symbol rate, fire-and-forget, optionally
injecting loss and duplication to exercise the consumer's reassembly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliconfig.Logger()

			if err := finishConfig(cmd, *cfgPath, &cfg); err != nil {
				return err
			}

			codec, err := telemetry.NewCodec(cfg.CSILen)
			if err != nil {
				return err
			}
			tx, err := transport.NewTransmitter(cfg.Dest(), codec, log)
			if err != nil {
				return err
			}
			defer tx.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st := simulate.New(simulate.Config{
				Channels:  cfg.Channels,
				CSILen:    cfg.CSILen,
				Interval:  cfg.SymbolInterval,
				Count:     cfg.Count,
				DropEvery: dropEvery,
				DupEvery:  dupEvery,
				Seed:      seed,
			}, tx, log)

			err = st.Run(ctx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if n := tx.Failures(); n > 0 {
				log.Info().Uint64("failed_sends", n).Msg("some datagrams were not sent")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.DestAddr, "dest-addr", cfg.DestAddr, "consumer IP address")
	cmd.Flags().IntVar(&cfg.DestPort, "dest-port", cfg.DestPort, "consumer UDP port")
	cmd.Flags().IntVar(&cfg.CSILen, "csi-len", cfg.CSILen, "CSI vector length")
	cmd.Flags().IntVar(&cfg.Channels, "channels", cfg.Channels, "number of rx ports to emit")
	cmd.Flags().DurationVar(&cfg.SymbolInterval, "interval", cfg.SymbolInterval, "symbol period between samples")
	cmd.Flags().IntVar(&cfg.Count, "count", cfg.Count, "stop after this many symbols (0 = run until interrupted)")
	cmd.Flags().IntVar(&dropEvery, "drop-every", 0, "withhold every Nth sample to simulate loss (0 disables)")
	cmd.Flags().IntVar(&dupEvery, "dup-every", 0, "send every Nth sample twice to simulate duplication (0 disables)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "noise seed (0 = derive from clock)")

	return cmd
}

// Package app wires the consumer-side components into a single live
// pipeline: receive loop, reassembly window, optional recorder, and a
// pull-based render ticker.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/inss-lab/udp-5g-csi-plot/internal/capture"
	"github.com/inss-lab/udp-5g-csi-plot/internal/render"
	"github.com/inss-lab/udp-5g-csi-plot/internal/transport"
	"github.com/inss-lab/udp-5g-csi-plot/internal/window"
	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// Pipeline runs the live consumer. The receive loop is the only blocking
// point; rendering happens on its own ticker against window snapshots, and
// the recorder sees exactly the samples the window newly accepted.
type Pipeline struct {
	receiver *transport.Receiver
	window   *window.Window
	recorder *capture.Recorder // nil when recording is disabled
	renderer render.Renderer
	refresh  time.Duration
	log      zerolog.Logger
}

// New assembles a pipeline. recorder may be nil.
func New(receiver *transport.Receiver, w *window.Window, recorder *capture.Recorder, renderer render.Renderer, refresh time.Duration, log zerolog.Logger) *Pipeline {
	if refresh <= 0 {
		refresh = 50 * time.Millisecond
	}
	return &Pipeline{
		receiver: receiver,
		window:   w,
		recorder: recorder,
		renderer: renderer,
		refresh:  refresh,
		log:      log,
	}
}

// Run blocks until ctx is canceled or the receiver fails. Shutdown closes
// the socket, stops rendering and flushes the recorder; a signal-driven
// cancellation is a clean exit and returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	accept := func(s telemetry.Sample) {
		if !p.window.Accept(s) {
			return // duplicate or stale, expected under loss and reorder
		}
		if p.recorder != nil {
			p.recorder.Record(s)
		}
	}

	recvErr := make(chan error, 1)
	go func() {
		recvErr <- p.receiver.Run(ctx, accept)
	}()

	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			runErr = <-recvErr // receiver unblocks via socket close
			break loop
		case err := <-recvErr:
			runErr = err
			break loop
		case <-ticker.C:
			if snap := p.window.Snapshot(); len(snap.Channels) > 0 {
				p.renderer.Draw(snap)
			}
		}
	}

	p.closeRecorder()
	p.log.Info().Uint64("accepted", p.window.Accepted()).Msg("pipeline stopped")
	return runErr
}

func (p *Pipeline) closeRecorder() {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Close(); err != nil {
		p.log.Error().Err(err).Msg("closing capture file")
	}
	if n := p.recorder.Dropped(); n > 0 {
		p.log.Warn().Uint64("dropped", n).Msg("capture lost samples to writer backpressure")
	}
}

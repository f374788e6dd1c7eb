// Package simulate generates a synthetic CSI/TA feed for demos and
// end-to-end testing. It stands in for the physical-layer process, driving
// the real codec and transmitter so the consumer sees exactly the traffic a
// live radio would produce, including optional loss and duplication.
package simulate

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/inss-lab/udp-5g-csi-plot/internal/transport"
	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// Config controls the synthetic feed.
type Config struct {
	// Channels is the number of rx ports to emit (tx port is always 0).
	Channels int

	// CSILen is the subcarrier count per sample.
	CSILen int

	// Interval is the symbol period, one sample per channel per tick.
	Interval time.Duration

	// Count stops the feed after this many ticks; 0 runs until ctx ends.
	Count int

	// DropEvery skips the send of every Nth sample per channel. The
	// sequence number still advances, so the receiver sees a gap exactly
	// as it would after network loss. 0 disables.
	DropEvery int

	// DupEvery sends every Nth sample twice, exercising the consumer's
	// duplicate suppression. 0 disables.
	DupEvery int

	// Seed feeds the noise generator; 0 derives one from the clock.
	Seed int64
}

// Streamer emits synthetic samples through a Transmitter.
type Streamer struct {
	cfg     Config
	tx      *transport.Transmitter
	counter *telemetry.SequenceCounter
	rng     *rand.Rand
	log     zerolog.Logger
}

// New creates a streamer. The transmitter is borrowed, not owned; the caller
// closes it.
func New(cfg Config, tx *transport.Transmitter, log zerolog.Logger) *Streamer {
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Streamer{
		cfg:     cfg,
		tx:      tx,
		counter: telemetry.NewSequenceCounter(),
		rng:     rand.New(rand.NewSource(seed)),
		log:     log,
	}
}

// Run emits samples until Count ticks have elapsed or ctx is canceled.
func (s *Streamer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info().
		Int("channels", s.cfg.Channels).
		Int("csi_len", s.cfg.CSILen).
		Dur("interval", s.cfg.Interval).
		Msg("streaming synthetic csi")

	for tick := 0; ; tick++ {
		if s.cfg.Count > 0 && tick >= s.cfg.Count {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		now := time.Now().UnixNano()
		for rx := 0; rx < s.cfg.Channels; rx++ {
			ch := telemetry.ChannelID{Rx: uint8(rx)}
			sample := telemetry.Sample{
				Channel:   ch,
				Seq:       s.counter.Next(ch),
				Timestamp: now,
				TA:        s.ta(tick),
				CSI:       s.csi(tick, rx),
			}

			if s.cfg.DropEvery > 0 && sample.Seq%uint64(s.cfg.DropEvery) == 0 {
				continue // counter already advanced, the gap is the point
			}
			s.tx.Send(sample)
			if s.cfg.DupEvery > 0 && sample.Seq%uint64(s.cfg.DupEvery) == 0 {
				s.tx.Send(sample)
			}
		}
	}
}

// ta drifts sinusoidally around zero with a little jitter, a few
// microseconds peak to peak, roughly what a wandering uplink shows.
func (s *Streamer) ta(tick int) float64 {
	return 2e-6*math.Sin(float64(tick)/40) + s.rng.NormFloat64()*5e-8
}

// csi models a two-path channel: a magnitude ripple across subcarriers plus
// a phase ramp that slowly rotates tick to tick, with additive noise.
func (s *Streamer) csi(tick, rx int) []complex64 {
	out := make([]complex64, s.cfg.CSILen)
	rot := float64(tick) * 0.05
	for i := range out {
		f := float64(i) / float64(s.cfg.CSILen)
		mag := 0.6 + 0.3*math.Cos(2*math.Pi*f*float64(rx+2))
		phase := -2*math.Pi*f*1.5 + rot
		re := mag*math.Cos(phase) + s.rng.NormFloat64()*0.02
		im := mag*math.Sin(phase) + s.rng.NormFloat64()*0.02
		out[i] = complex(float32(re), float32(im))
	}
	return out
}

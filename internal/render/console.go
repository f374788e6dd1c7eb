package render

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"

	"github.com/inss-lab/udp-5g-csi-plot/internal/window"
)

// sparkWidth is the number of character cells used for the magnitude and TA
// sparklines.
const sparkWidth = 32

var sparkLevels = []rune(" ▁▂▃▄▅▆▇█")

// Console renders snapshots as text, one line per channel plus a TA history
// line: a magnitude sparkline over the subcarriers of the newest sample, the
// unwrapped phase slope, and the latest timing advance in microseconds. It
// is the terminal stand-in for the magnitude/phase/TA figure of the original
// plotter.
type Console struct {
	w io.Writer
}

// NewConsole returns a console renderer writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Draw implements Renderer. An empty snapshot draws nothing.
func (c *Console) Draw(snap window.Snapshot) {
	for _, ch := range snap.Channels {
		buf := snap.Samples[ch]
		if len(buf) == 0 {
			continue
		}
		newest := buf[len(buf)-1]

		mean, peak := magStats(newest.CSI)
		fmt.Fprintf(c.w, "%s  seq %d..%d (%d buffered)  |%s|  mag avg %.3f peak %.3f  slope %+.3f rad  ta %+.3f µs\n",
			ch, buf[0].Seq, newest.Seq, len(buf),
			sparkline(magnitudes(newest.CSI)),
			mean, peak,
			phaseSlope(newest.CSI),
			newest.TAMicros(),
		)
	}

	if len(snap.TAHistory) > 0 {
		micros := make([]float64, len(snap.TAHistory))
		for i, ta := range snap.TAHistory {
			micros[i] = ta * 1e6
		}
		lo, hi := minMax(micros)
		fmt.Fprintf(c.w, "ta      last %+.3f µs  range [%+.3f, %+.3f]  |%s|\n",
			micros[len(micros)-1], lo, hi, sparkline(micros))
	}
}

func magnitudes(csi []complex64) []float64 {
	out := make([]float64, len(csi))
	for i, v := range csi {
		out[i] = cmplx.Abs(complex128(v))
	}
	return out
}

func magStats(csi []complex64) (mean, peak float64) {
	if len(csi) == 0 {
		return 0, 0
	}
	for _, v := range csi {
		m := cmplx.Abs(complex128(v))
		mean += m
		if m > peak {
			peak = m
		}
	}
	return mean / float64(len(csi)), peak
}

// phaseSlope returns the mean per-subcarrier slope of the unwrapped phase,
// the quantity the original plot showed as the phase ramp. A linear phase
// across subcarriers corresponds to a delay in the channel.
func phaseSlope(csi []complex64) float64 {
	if len(csi) < 2 {
		return 0
	}
	unwrapped := unwrapPhase(csi)
	return (unwrapped[len(unwrapped)-1] - unwrapped[0]) / float64(len(unwrapped)-1)
}

func unwrapPhase(csi []complex64) []float64 {
	out := make([]float64, len(csi))
	var offset float64
	for i, v := range csi {
		p := cmplx.Phase(complex128(v))
		if i > 0 {
			for p+offset-out[i-1] > math.Pi {
				offset -= 2 * math.Pi
			}
			for p+offset-out[i-1] < -math.Pi {
				offset += 2 * math.Pi
			}
		}
		out[i] = p + offset
	}
	return out
}

// sparkline buckets values into sparkWidth cells and maps each bucket's mean
// onto the block-character ramp, scaled to the slice's own min/max.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	width := sparkWidth
	if len(values) < width {
		width = len(values)
	}

	cells := make([]float64, width)
	for i := range cells {
		lo := i * len(values) / width
		hi := (i + 1) * len(values) / width
		if hi <= lo {
			hi = lo + 1
		}
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		cells[i] = sum / float64(hi-lo)
	}

	lo, hi := minMax(cells)
	span := hi - lo
	out := make([]rune, width)
	for i, v := range cells {
		level := 0
		if span > 0 {
			level = int((v - lo) / span * float64(len(sparkLevels)-1))
		}
		out[i] = sparkLevels[level]
	}
	return string(out)
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

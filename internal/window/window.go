// Package window turns the unordered, lossy, possibly-duplicated stream of
// arriving samples into bounded, sequence-ordered per-channel buffers that
// the renderer can snapshot at any time.
package window

import (
	"sort"
	"sync"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// Window holds the most recently accepted samples for each channel, ordered
// by sequence number, plus a bounded history of accepted TA values across
// all channels. One mutex guards the whole structure so a snapshot never
// observes a partial insert or eviction.
type Window struct {
	mu       sync.Mutex
	capacity int
	taCap    int
	buffers  map[telemetry.ChannelID][]telemetry.Sample
	ta       []float64
	accepted uint64
}

// New creates a window keeping at most capacity samples per channel and
// taHistory accepted TA values.
func New(capacity, taHistory int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	if taHistory < 1 {
		taHistory = 1
	}
	return &Window{
		capacity: capacity,
		taCap:    taHistory,
		buffers:  make(map[telemetry.ChannelID][]telemetry.Sample),
	}
}

// Accept inserts a sample at its sorted position and reports whether it was
// newly accepted. Duplicates (sequence number already buffered) and stale
// arrivals (sequence number below the oldest retained entry) are discarded;
// both are expected under loss and reordering, so neither is an error. When
// a channel buffer exceeds capacity the smallest sequence number is evicted.
// Gaps are never filled: a lost sample simply stays missing.
func (w *Window) Accept(s telemetry.Sample) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := w.buffers[s.Channel]
	i := sort.Search(len(buf), func(i int) bool { return buf[i].Seq >= s.Seq })
	if i < len(buf) && buf[i].Seq == s.Seq {
		return false // duplicate, first accepted wins
	}
	if len(buf) > 0 && s.Seq < buf[0].Seq {
		return false // stale, already aged out of the retained span
	}

	buf = append(buf, telemetry.Sample{})
	copy(buf[i+1:], buf[i:])
	buf[i] = s
	if len(buf) > w.capacity {
		buf = buf[:copy(buf, buf[1:])]
	}
	w.buffers[s.Channel] = buf

	w.ta = append(w.ta, s.TA)
	if len(w.ta) > w.taCap {
		w.ta = w.ta[:copy(w.ta, w.ta[1:])]
	}
	w.accepted++
	return true
}

// Snapshot is a consistent copy of the window contents. The sample slices
// are copies; CSI vectors are shared and must be treated as read-only.
type Snapshot struct {
	// Channels lists the channels seen so far, sorted by rx then tx port.
	Channels []telemetry.ChannelID

	// Samples maps each channel to its buffered samples, ascending by
	// sequence number.
	Samples map[telemetry.ChannelID][]telemetry.Sample

	// TAHistory holds the most recently accepted TA values in acceptance
	// order, across all channels, in seconds.
	TAHistory []float64
}

// Snapshot returns the current contents without mutating the window. It is
// safe to call concurrently with Accept.
func (w *Window) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		Channels: make([]telemetry.ChannelID, 0, len(w.buffers)),
		Samples:  make(map[telemetry.ChannelID][]telemetry.Sample, len(w.buffers)),
	}
	for ch, buf := range w.buffers {
		snap.Channels = append(snap.Channels, ch)
		snap.Samples[ch] = append([]telemetry.Sample(nil), buf...)
	}
	sort.Slice(snap.Channels, func(i, j int) bool { return snap.Channels[i].Less(snap.Channels[j]) })
	snap.TAHistory = append([]float64(nil), w.ta...)
	return snap
}

// Accepted returns the total number of samples accepted since creation.
func (w *Window) Accepted() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.accepted
}

// Size returns the total number of samples currently buffered.
func (w *Window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, buf := range w.buffers {
		n += len(buf)
	}
	return n
}

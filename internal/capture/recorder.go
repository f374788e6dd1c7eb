package capture

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// Recorder appends accepted samples to a capture file. Record only enqueues;
// a single writer goroutine does the disk I/O, so the receive loop is never
// held up by the filesystem. When the queue is full the oldest queued sample
// is dropped and counted: recording falling behind costs data, never
// liveness.
type Recorder struct {
	codec telemetry.Codec
	f     *os.File
	w     *bufio.Writer
	log   zerolog.Logger

	mu     sync.Mutex
	closed bool
	ch     chan telemetry.Sample
	done   chan struct{}

	dropped  atomic.Uint64
	written  atomic.Uint64
	writeErr atomic.Value // error
	lastDrop time.Time
}

// NewRecorder creates (or truncates) the capture file at path and writes its
// header. Failure here is fatal at startup by contract. queueDepth bounds
// the in-flight samples between the receive loop and the writer.
func NewRecorder(path string, codec telemetry.Codec, queueDepth int, log zerolog.Logger) (*Recorder, error) {
	if queueDepth < 1 {
		queueDepth = 1
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	if _, err := f.Write(encodeFileHeader(codec.CSILen())); err != nil {
		f.Close()
		return nil, fmt.Errorf("write capture header: %w", err)
	}

	r := &Recorder{
		codec: codec,
		f:     f,
		w:     bufio.NewWriter(f),
		log:   log,
		ch:    make(chan telemetry.Sample, queueDepth),
		done:  make(chan struct{}),
	}
	go r.writeLoop()
	return r, nil
}

// Record enqueues one sample for appending. It never blocks indefinitely:
// if the writer has fallen behind, the oldest queued sample is discarded to
// make room, logged as data loss at most once per second.
func (r *Recorder) Record(s telemetry.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for {
		select {
		case r.ch <- s:
			return
		default:
		}
		select {
		case <-r.ch:
			r.noteDropLocked()
		default:
		}
	}
}

func (r *Recorder) noteDropLocked() {
	n := r.dropped.Add(1)
	if now := time.Now(); now.Sub(r.lastDrop) >= time.Second {
		r.lastDrop = now
		r.log.Warn().Uint64("dropped", n).Msg("capture writer behind, dropping oldest queued sample")
	}
}

func (r *Recorder) writeLoop() {
	defer close(r.done)
	buf := make([]byte, r.codec.RecordSize())
	for s := range r.ch {
		if err := r.codec.EncodeTo(buf, s); err != nil {
			r.log.Warn().Err(err).Msg("skipping unencodable sample")
			continue
		}
		if _, err := r.w.Write(buf); err != nil {
			if r.writeErr.Load() == nil {
				r.writeErr.Store(err)
				r.log.Error().Err(err).Msg("capture write failed")
			}
			continue
		}
		r.written.Add(1)
	}
}

// Dropped returns the number of samples lost to queue overflow.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Written returns the number of records appended so far.
func (r *Recorder) Written() uint64 {
	return r.written.Load()
}

// Close stops intake, drains the queue, flushes and closes the file. It
// returns the first write error encountered, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return telemetry.ErrClosed
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	<-r.done

	err, _ := r.writeErr.Load().(error)
	if ferr := r.w.Flush(); err == nil {
		err = ferr
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

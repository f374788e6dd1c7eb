// Package replay reconstructs a live session's display from a capture file,
// feeding records through the same reassembly window and renderer entry
// point the live pipeline uses. No network is involved.
package replay

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/inss-lab/udp-5g-csi-plot/internal/capture"
	"github.com/inss-lab/udp-5g-csi-plot/internal/render"
	"github.com/inss-lab/udp-5g-csi-plot/internal/window"
)

// maxGap caps the pause between paced records so a capture with a long idle
// stretch does not freeze the replay.
const maxGap = 2 * time.Second

// followPollInterval is the fallback poll cadence while following, in case
// filesystem events are coalesced or unavailable.
const followPollInterval = 250 * time.Millisecond

// Loader replays a capture file through a window and renderer.
type Loader struct {
	// Window receives each record exactly as the live path would.
	Window *window.Window

	// Renderer is drawn once per accepted record.
	Renderer render.Renderer

	// Rate scales pacing against the recorded timestamps: 1 replays at the
	// original speed, 2 at double speed, 0 as fast as possible.
	Rate float64

	// Follow keeps reading after end of file, waking when the file grows.
	// Replay then ends only on ctx cancellation.
	Follow bool

	Log zerolog.Logger
}

// Run replays the file at path. It returns the number of records fed through
// the window and the terminating error: nil on a clean end of file, ctx.Err()
// when following is canceled, a *telemetry.CorruptLogError when a record
// cannot be parsed (the records replayed before it already reached the
// renderer), or the open error if the file is unusable.
func (l *Loader) Run(ctx context.Context, path string) (int, error) {
	r, err := capture.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	l.Log.Info().Str("file", path).Int("csi_len", r.CSILen()).Float64("rate", l.Rate).Msg("replaying capture")

	var watcher *fsnotify.Watcher
	if l.Follow {
		// Watch the directory rather than the file: a recorder may
		// recreate the file in place.
		watcher, err = fsnotify.NewWatcher()
		if err == nil {
			err = watcher.Add(filepath.Dir(path))
		}
		if err != nil {
			l.Log.Warn().Err(err).Msg("file watch unavailable, falling back to polling")
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	var prevTS int64
	for {
		s, err := r.Next()
		if err != nil {
			if err == io.EOF {
				if !l.Follow {
					if tail := r.CorruptTail(); tail != nil {
						return r.Replayed(), tail
					}
					return r.Replayed(), nil
				}
				if err := l.waitForGrowth(ctx, watcher, filepath.Base(path)); err != nil {
					return r.Replayed(), err
				}
				continue
			}
			return r.Replayed(), err
		}

		if l.Rate > 0 && prevTS != 0 && s.Timestamp > prevTS {
			gap := time.Duration(float64(s.Timestamp-prevTS) / l.Rate)
			if gap > maxGap {
				gap = maxGap
			}
			select {
			case <-ctx.Done():
				return r.Replayed() - 1, ctx.Err()
			case <-time.After(gap):
			}
		}
		prevTS = s.Timestamp

		if l.Window.Accept(s) {
			l.Renderer.Draw(l.Window.Snapshot())
		}
	}
}

// waitForGrowth blocks until the capture file changes, the poll interval
// elapses, or ctx is canceled.
func (l *Loader) waitForGrowth(ctx context.Context, watcher *fsnotify.Watcher, base string) error {
	poll := time.NewTimer(followPollInterval)
	defer poll.Stop()

	for {
		if watcher == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-poll.C:
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.Log.Warn().Err(err).Msg("file watch error")
		}
	}
}

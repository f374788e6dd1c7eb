package capture

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

func newCodec(t *testing.T, csiLen int) telemetry.Codec {
	t.Helper()
	codec, err := telemetry.NewCodec(csiLen)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func sample(seq uint64, csiLen int) telemetry.Sample {
	csi := make([]complex64, csiLen)
	for i := range csi {
		csi[i] = complex(float32(seq), float32(i))
	}
	return telemetry.Sample{
		Channel:   telemetry.ChannelID{Rx: 2, Tx: 0},
		Seq:       seq,
		Timestamp: int64(seq) * int64(time.Millisecond),
		TA:        1.5e-6,
		CSI:       csi,
	}
}

func writeCapture(t *testing.T, path string, csiLen int, seqs ...uint64) {
	t.Helper()
	rec, err := NewRecorder(path, newCodec(t, csiLen), 64, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	for _, seq := range seqs {
		rec.Record(sample(seq, csiLen))
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRecordReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csicap")

	// Acceptance order, not sequence order; stored order must survive.
	writeCapture(t, path, 3, 1, 3, 2)

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	if r.CSILen() != 3 {
		t.Fatalf("CSILen = %d, want 3", r.CSILen())
	}

	for _, want := range []uint64{1, 3, 2} {
		s, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if s.Seq != want {
			t.Fatalf("read seq %d, want %d", s.Seq, want)
		}
		if len(s.CSI) != 3 || s.CSI[0] != complex(float32(want), 0) {
			t.Fatalf("seq %d csi mismatch: %v", want, s.CSI)
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("Next after last record = %v, want io.EOF", err)
	}
	if r.Truncated() {
		t.Fatal("clean file reported truncated")
	}
	if r.Replayed() != 3 {
		t.Fatalf("Replayed = %d, want 3", r.Replayed())
	}
}

func TestReaderTruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csicap")
	writeCapture(t, path, 2, 1, 2)

	// Cut the last record in half.
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	codec := newCodec(t, 2)
	if err := os.Truncate(path, fi.Size()-int64(codec.RecordSize()/2)); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	if s, err := r.Next(); err != nil || s.Seq != 1 {
		t.Fatalf("Next = (%v, %v), want seq 1", s.Seq, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("Next = %v, want io.EOF", err)
	}
	if !r.Truncated() {
		t.Fatal("truncated tail not detected")
	}

	var cerr *telemetry.CorruptLogError
	if err := r.CorruptTail(); !errors.As(err, &cerr) {
		t.Fatalf("CorruptTail = %v, want CorruptLogError", err)
	} else if cerr.Replayed != 1 {
		t.Fatalf("CorruptLogError.Replayed = %d, want 1", cerr.Replayed)
	}
}

func TestOpenReaderRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	if err := os.WriteFile(path, []byte("this is not a capture file at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := OpenReader(path); !errors.Is(err, telemetry.ErrMalformedPayload) {
		t.Fatalf("OpenReader = %v, want ErrMalformedPayload", err)
	}
}

func TestOpenReaderMissingFile(t *testing.T) {
	if _, err := OpenReader(filepath.Join(t.TempDir(), "nope.csicap")); err == nil {
		t.Fatal("OpenReader succeeded on a missing file")
	}
}

func TestRecorderDropOldestUnderPressure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csicap")
	codec := newCodec(t, 2)

	rec, err := NewRecorder(path, codec, 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	// Flood far beyond the queue depth. Some samples may be dropped, but
	// Record must never block and Close must still flush a readable file.
	for seq := uint64(1); seq <= 500; seq++ {
		rec.Record(sample(seq, 2))
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if rec.Written()+rec.Dropped() != 500 {
		t.Fatalf("written %d + dropped %d != 500", rec.Written(), rec.Dropped())
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	n := 0
	for {
		if _, err := r.Next(); err != nil {
			if err != io.EOF {
				t.Fatalf("Next: %v", err)
			}
			break
		}
		n++
	}
	if uint64(n) != rec.Written() {
		t.Fatalf("file holds %d records, recorder reports %d written", n, rec.Written())
	}
}

func TestRecorderCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csicap")
	rec, err := NewRecorder(path, newCodec(t, 2), 4, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := rec.Close(); !errors.Is(err, telemetry.ErrClosed) {
		t.Fatalf("second Close = %v, want ErrClosed", err)
	}
	rec.Record(sample(1, 2)) // no-op after close
}

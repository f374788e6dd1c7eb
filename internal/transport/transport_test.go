package transport

import (
	"context"
	"net"
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
		csi[i] = complex(0.5, float32(seq))
	}
	return telemetry.Sample{
		Channel:   telemetry.ChannelID{Rx: 0, Tx: 1},
		Seq:       seq,
		Timestamp: time.Now().UnixNano(),
		TA:        2.5e-6,
		CSI:       csi,
	}
}

func TestTransmitReceive(t *testing.T) {
	codec := newCodec(t, 4)
	logger := zerolog.Nop()

	recv, err := NewReceiver(0, codec, logger)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	defer recv.Close()

	got := make(chan telemetry.Sample, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		runErr <- recv.Run(ctx, func(s telemetry.Sample) { got <- s })
	}()

	tx, err := NewTransmitter(recv.LocalAddr().String(), codec, logger)
	if err != nil {
		t.Fatalf("NewTransmitter: %v", err)
	}
	defer tx.Close()

	for seq := uint64(1); seq <= 3; seq++ {
		tx.Send(sample(seq, 4))
	}

	for seq := uint64(1); seq <= 3; seq++ {
		select {
		case s := <-got:
			if s.Seq != seq {
				t.Fatalf("received seq %d, want %d", s.Seq, seq)
			}
			if len(s.CSI) != 4 {
				t.Fatalf("received csi length %d, want 4", len(s.CSI))
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for seq %d", seq)
		}
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned %v after cancel, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestReceiverSkipsMalformed(t *testing.T) {
	codec := newCodec(t, 4)
	logger := zerolog.Nop()

	recv, err := NewReceiver(0, codec, logger)
	if err != nil {
		t.Fatalf("NewReceiver: %v", err)
	}
	defer recv.Close()

	got := make(chan telemetry.Sample, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		recv.Run(ctx, func(s telemetry.Sample) { got <- s })
	}()

	raw, err := net.Dial("udp", recv.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer raw.Close()

	// Junk of the wrong length, then junk of the right length with a bad
	// magic, then a valid record.
	if _, err := raw.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	badMagic := make([]byte, codec.RecordSize())
	if _, err := raw.Write(badMagic); err != nil {
		t.Fatalf("write bad magic: %v", err)
	}
	valid, err := codec.Encode(sample(9, 4))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := raw.Write(valid); err != nil {
		t.Fatalf("write valid: %v", err)
	}

	select {
	case s := <-got:
		if s.Seq != 9 {
			t.Fatalf("received seq %d, want 9", s.Seq)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not survive malformed datagrams")
	}

	select {
	case s := <-got:
		t.Fatalf("unexpected extra sample: seq %d", s.Seq)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTransmitterSwallowsFailures(t *testing.T) {
	codec := newCodec(t, 4)

	// Destination that nothing listens on. A UDP send may still succeed
	// locally, but Send must not panic or block either way; an unencodable
	// sample must always count as dropped silently.
	tx, err := NewTransmitter("127.0.0.1:1", codec, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTransmitter: %v", err)
	}
	defer tx.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			tx.Send(sample(uint64(i), 4))
		}
		tx.Send(sample(0, 2)) // wrong vector length, dropped before the socket
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked")
	}
}

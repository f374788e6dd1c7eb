package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// Receiver binds a UDP port and decodes arriving datagrams into samples.
// Waiting for the next datagram is the only blocking point on the consumer
// side; everything downstream of accept must return promptly.
type Receiver struct {
	conn  net.PacketConn
	codec telemetry.Codec
	log   zerolog.Logger
}

// NewReceiver binds the listen port. A bind failure (port in use, permission
// denied) is returned to the caller and is fatal at startup.
func NewReceiver(port int, codec telemetry.Codec, log zerolog.Logger) (*Receiver, error) {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind udp port %d: %w", port, err)
	}
	return &Receiver{conn: conn, codec: codec, log: log}, nil
}

// LocalAddr returns the bound address.
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// Run reads datagrams until ctx is canceled, handing each decoded sample to
// accept in arrival order; no reordering happens at this layer. Malformed
// payloads are logged and skipped, never fatal. Cancellation closes the
// socket to unblock the read, and Run returns nil in that case.
func (r *Receiver) Run(ctx context.Context, accept func(telemetry.Sample)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.conn.Close()
		case <-done:
		}
	}()

	// One byte of slack so an oversized datagram decodes as a length
	// mismatch instead of being silently truncated to the record size.
	buf := make([]byte, r.codec.RecordSize()+1)

	for {
		n, _, err := r.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("udp read: %w", err)
		}

		s, err := r.codec.Decode(buf[:n])
		if err != nil {
			r.log.Warn().Err(err).Int("bytes", n).Msg("discarding datagram")
			continue
		}
		accept(s)
	}
}

// Close releases the socket; a concurrent Run returns.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

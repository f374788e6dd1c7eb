// Package transport moves encoded samples between the producer and consumer
// processes as UDP datagrams, one record per datagram, fire-and-forget.
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// sendDeadline bounds a single send so the producer's real-time loop can
// never stall on a full OS send buffer; the sample for that tick is lost
// instead.
const sendDeadline = time.Millisecond

// Transmitter sends each encoded sample as one best-effort datagram to a
// fixed destination. It never retries and never queues beyond what the OS
// socket buffers, and network failures are counted and logged rather than
// returned, so the producer loop is unaffected by an unreachable or slow
// consumer.
type Transmitter struct {
	conn     *net.UDPConn
	codec    telemetry.Codec
	buf      []byte
	log      zerolog.Logger
	failures uint64
}

// NewTransmitter connects a transmitter to dest ("host:port"). The
// destination is fixed for the life of the transmitter.
func NewTransmitter(dest string, codec telemetry.Codec, log zerolog.Logger) (*Transmitter, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dest, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", dest, err)
	}
	return &Transmitter{
		conn:  conn,
		codec: codec,
		buf:   make([]byte, codec.RecordSize()),
		log:   log,
	}, nil
}

// Send encodes and transmits one sample. It completes in bounded time and
// never returns an error: an encode mismatch or a transient network failure
// drops the sample for this tick. The first failure is logged at warn so an
// operator notices a misconfigured destination; subsequent ones at debug.
func (t *Transmitter) Send(s telemetry.Sample) {
	if err := t.codec.EncodeTo(t.buf, s); err != nil {
		t.log.Warn().Err(err).Str("channel", s.Channel.String()).Msg("dropping unencodable sample")
		return
	}

	_ = t.conn.SetWriteDeadline(time.Now().Add(sendDeadline))
	if _, err := t.conn.Write(t.buf); err != nil {
		t.failures++
		ev := t.log.Debug()
		if t.failures == 1 {
			ev = t.log.Warn()
		}
		ev.Err(err).Uint64("failures", t.failures).Msg("datagram send failed")
	}
}

// Failures returns the number of failed sends so far.
func (t *Transmitter) Failures() uint64 {
	return t.failures
}

// Close releases the socket.
func (t *Transmitter) Close() error {
	return t.conn.Close()
}

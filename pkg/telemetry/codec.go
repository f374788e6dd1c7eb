package telemetry

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire layout, big-endian throughout. The 8-byte header is fixed-length and
// first; everything after it is fixed-width, so one datagram is exactly one
// record and boundaries come for free from UDP.
//
//	offset  size  field
//	0       2     magic 0xC5 0x1A
//	2       1     version
//	3       1     rx port
//	4       1     tx port
//	5       3     reserved (zero)
//	8       8     sequence number (uint64)
//	16      8     timestamp (int64, unix ns)
//	24      8*L   CSI: L x (real float32, imag float32)
//	24+8L   8     ta offset (float64, seconds)
const (
	headerSize = 8
	magic0     = 0xC5
	magic1     = 0x1A

	// Version is the current wire format version.
	Version = 0x01

	// MaxCSILen bounds the CSI vector so a record fits in one UDP
	// datagram (65507 payload bytes).
	MaxCSILen = (65507 - headerSize - 24) / 8
)

// Codec encodes and decodes samples for one session. The CSI vector length
// is fixed at construction and must be configured identically on both ends.
type Codec struct {
	csiLen int
}

// NewCodec returns a codec for CSI vectors of length csiLen.
func NewCodec(csiLen int) (Codec, error) {
	if csiLen <= 0 || csiLen > MaxCSILen {
		return Codec{}, fmt.Errorf("csi length %d out of range [1,%d]", csiLen, MaxCSILen)
	}
	return Codec{csiLen: csiLen}, nil
}

// CSILen returns the configured CSI vector length.
func (c Codec) CSILen() int {
	return c.csiLen
}

// RecordSize returns the exact byte size of one encoded record.
func (c Codec) RecordSize() int {
	return headerSize + 24 + 8*c.csiLen
}

// Encode serializes a sample into a freshly allocated record.
func (c Codec) Encode(s Sample) ([]byte, error) {
	buf := make([]byte, c.RecordSize())
	if err := c.EncodeTo(buf, s); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeTo serializes a sample into buf, which must be exactly RecordSize
// bytes. The producer's send path reuses one buffer across calls to stay
// allocation-free.
func (c Codec) EncodeTo(buf []byte, s Sample) error {
	if len(buf) != c.RecordSize() {
		return fmt.Errorf("encode buffer is %d bytes, want %d", len(buf), c.RecordSize())
	}
	if len(s.CSI) != c.csiLen {
		return fmt.Errorf("%w: csi vector has %d entries, session is configured for %d", ErrMalformedPayload, len(s.CSI), c.csiLen)
	}

	buf[0] = magic0
	buf[1] = magic1
	buf[2] = Version
	buf[3] = s.Channel.Rx
	buf[4] = s.Channel.Tx
	buf[5], buf[6], buf[7] = 0, 0, 0

	binary.BigEndian.PutUint64(buf[8:16], s.Seq)
	binary.BigEndian.PutUint64(buf[16:24], uint64(s.Timestamp))

	off := 24
	for _, v := range s.CSI {
		binary.BigEndian.PutUint32(buf[off:off+4], math.Float32bits(real(v)))
		binary.BigEndian.PutUint32(buf[off+4:off+8], math.Float32bits(imag(v)))
		off += 8
	}
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(s.TA))
	return nil
}

// Decode parses one record. Payloads whose length differs from RecordSize,
// or whose magic or version does not match, are rejected as malformed; the
// receiver discards them and keeps listening.
func (c Codec) Decode(payload []byte) (Sample, error) {
	if len(payload) != c.RecordSize() {
		return Sample{}, fmt.Errorf("%w: payload is %d bytes, want %d", ErrMalformedPayload, len(payload), c.RecordSize())
	}
	if payload[0] != magic0 || payload[1] != magic1 {
		return Sample{}, fmt.Errorf("%w: bad magic %#02x%02x", ErrMalformedPayload, payload[0], payload[1])
	}
	if payload[2] != Version {
		return Sample{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedPayload, payload[2])
	}

	s := Sample{
		Channel:   ChannelID{Rx: payload[3], Tx: payload[4]},
		Seq:       binary.BigEndian.Uint64(payload[8:16]),
		Timestamp: int64(binary.BigEndian.Uint64(payload[16:24])),
		CSI:       make([]complex64, c.csiLen),
	}

	off := 24
	for i := range s.CSI {
		re := math.Float32frombits(binary.BigEndian.Uint32(payload[off : off+4]))
		im := math.Float32frombits(binary.BigEndian.Uint32(payload[off+4 : off+8]))
		s.CSI[i] = complex(re, im)
		off += 8
	}
	s.TA = math.Float64frombits(binary.BigEndian.Uint64(payload[off : off+8]))
	return s, nil
}

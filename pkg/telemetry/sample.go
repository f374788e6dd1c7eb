package telemetry

import (
	"fmt"
	"time"
)

// ChannelID identifies one (rx port, tx port) link of the radio front end.
// Sequence numbers are assigned per channel, and the reassembly window keeps
// an independent buffer per channel.
type ChannelID struct {
	Rx uint8
	Tx uint8
}

// String returns a compact form such as "rx0-tx1".
func (c ChannelID) String() string {
	return fmt.Sprintf("rx%d-tx%d", c.Rx, c.Tx)
}

// Less orders channels by rx port, then tx port.
func (c ChannelID) Less(o ChannelID) bool {
	if c.Rx != o.Rx {
		return c.Rx < o.Rx
	}
	return c.Tx < o.Tx
}

// Sample is one CSI/TA measurement produced by the physical layer.
type Sample struct {
	// Channel is the link this measurement belongs to.
	Channel ChannelID

	// Seq is the per-channel sequence number assigned by the producer.
	// It exists for ordering and duplicate detection only; nothing is
	// ever retransmitted.
	Seq uint64

	// Timestamp is the producer-side capture time in Unix nanoseconds.
	Timestamp int64

	// TA is the timing advance offset in seconds, the producer's native
	// unit. Display code converts to microseconds.
	TA float64

	// CSI holds one complex value per subcarrier. Its length is fixed for
	// the life of a session.
	CSI []complex64
}

// Time returns the capture timestamp as a time.Time.
func (s Sample) Time() time.Time {
	return time.Unix(0, s.Timestamp)
}

// TAMicros returns the timing advance in microseconds.
func (s Sample) TAMicros() float64 {
	return s.TA * 1e6
}

package telemetry

// SequenceCounter issues per-channel monotonic sequence numbers. It is owned
// by the producer's encode path rather than living as a package global, so
// it can be constructed fresh per session and exercised in isolation.
//
// Next advances the counter unconditionally: a sample whose send is skipped
// or fails still consumes its sequence number, so the receiver sees the gap.
//
// The producer runs a single real-time loop; SequenceCounter is not
// goroutine safe.
type SequenceCounter struct {
	next map[ChannelID]uint64
}

// NewSequenceCounter returns a counter starting at 1 for every channel.
func NewSequenceCounter() *SequenceCounter {
	return &SequenceCounter{next: make(map[ChannelID]uint64)}
}

// Next returns the next sequence number for the channel and advances it.
func (c *SequenceCounter) Next(ch ChannelID) uint64 {
	n, ok := c.next[ch]
	if !ok {
		n = 1
	}
	c.next[ch] = n + 1
	return n
}

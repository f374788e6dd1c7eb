package telemetry

import (
	"errors"
	"fmt"
)

// Errors returned by the codec and capture layers. Per-packet failures are
// expected under loss and never fatal; callers check them with errors.Is.
var (
	// ErrMalformedPayload indicates a datagram or record whose length,
	// magic or version does not match the configured layout.
	ErrMalformedPayload = errors.New("telemetry: malformed payload")

	// ErrClosed is returned by components used after Close.
	ErrClosed = errors.New("telemetry: closed")
)

// CorruptLogError reports an unreadable record in a capture file. Replay
// stops at the first corrupt record; Replayed counts the valid records
// delivered before the failure, which remain useful.
type CorruptLogError struct {
	// Replayed is the number of records successfully read before the
	// corrupt one.
	Replayed int

	// Offset is the byte offset of the corrupt record.
	Offset int64

	// Err is the underlying decode or read error.
	Err error
}

// Error implements the error interface.
func (e *CorruptLogError) Error() string {
	return fmt.Sprintf("corrupt capture record at offset %d after %d valid records: %v", e.Offset, e.Replayed, e.Err)
}

// Unwrap returns the underlying error.
func (e *CorruptLogError) Unwrap() error {
	return e.Err
}

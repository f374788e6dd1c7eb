package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

// Reader streams records out of a capture file in stored order. The CSI
// vector length comes from the file header, so no out-of-band configuration
// is needed for replay.
//
// Next returns io.EOF at the end of the data. A partially written trailing
// record is buffered rather than consumed, so a follow-mode caller can retry
// Next once the file grows; a one-shot caller checks Truncated to decide
// whether the tail was corrupt.
type Reader struct {
	f       *os.File
	br      *bufio.Reader
	codec   telemetry.Codec
	buf     []byte
	pending int
	count   int
	offset  int64
}

// OpenReader opens a capture file and validates its header.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	header := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(br, header); err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture header: %w", err)
	}
	csiLen, err := decodeFileHeader(header)
	if err != nil {
		f.Close()
		return nil, err
	}
	codec, err := telemetry.NewCodec(csiLen)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("capture header: %w", err)
	}

	return &Reader{
		f:      f,
		br:     br,
		codec:  codec,
		buf:    make([]byte, codec.RecordSize()),
		offset: fileHeaderSize,
	}, nil
}

// CSILen returns the CSI vector length declared by the file header.
func (r *Reader) CSILen() int {
	return r.codec.CSILen()
}

// Replayed returns the number of records successfully read so far.
func (r *Reader) Replayed() int {
	return r.count
}

// Offset returns the byte offset of the next unread record.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Truncated reports whether a partial record is buffered. After io.EOF this
// distinguishes a cleanly ended file from one cut off mid-record.
func (r *Reader) Truncated() bool {
	return r.pending > 0
}

// CorruptTail returns the CorruptLogError describing a truncated trailing
// record, or nil if the file ended cleanly.
func (r *Reader) CorruptTail() error {
	if r.pending == 0 {
		return nil
	}
	return &telemetry.CorruptLogError{Replayed: r.count, Offset: r.offset, Err: io.ErrUnexpectedEOF}
}

// Next returns the next record. It returns io.EOF at end of data and a
// *telemetry.CorruptLogError if a complete record fails to decode.
func (r *Reader) Next() (telemetry.Sample, error) {
	for r.pending < len(r.buf) {
		n, err := r.br.Read(r.buf[r.pending:])
		r.pending += n
		if err != nil {
			if err == io.EOF {
				return telemetry.Sample{}, io.EOF
			}
			return telemetry.Sample{}, &telemetry.CorruptLogError{Replayed: r.count, Offset: r.offset, Err: err}
		}
	}

	s, err := r.codec.Decode(r.buf)
	if err != nil {
		return telemetry.Sample{}, &telemetry.CorruptLogError{Replayed: r.count, Offset: r.offset, Err: err}
	}
	r.pending = 0
	r.count++
	r.offset += int64(len(r.buf))
	return s, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

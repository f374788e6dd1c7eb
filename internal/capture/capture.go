// Package capture persists accepted samples to an append-only file and
// streams them back for replay.
//
// A capture file starts with a fixed 16-byte header followed by fixed-width
// records identical to the wire records, so the telemetry codec is reused
// unchanged and the reader can stream the file without loading it:
//
//	offset  size  field
//	0       6     magic "CSICAP"
//	6       1     file version
//	7       1     reserved (zero)
//	8       2     csi vector length (uint16, big-endian)
//	10      6     reserved (zero)
//
// Records are appended in acceptance order, which under reordering is not
// sequence-number order; replay feeds them back through the reassembly
// window exactly as the live path did.
package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/inss-lab/udp-5g-csi-plot/pkg/telemetry"
)

const (
	fileMagic      = "CSICAP"
	fileVersion    = 1
	fileHeaderSize = 16
)

func encodeFileHeader(csiLen int) []byte {
	h := make([]byte, fileHeaderSize)
	copy(h, fileMagic)
	h[6] = fileVersion
	binary.BigEndian.PutUint16(h[8:10], uint16(csiLen))
	return h
}

func decodeFileHeader(h []byte) (int, error) {
	if len(h) != fileHeaderSize {
		return 0, fmt.Errorf("%w: header is %d bytes, want %d", telemetry.ErrMalformedPayload, len(h), fileHeaderSize)
	}
	if string(h[:6]) != fileMagic {
		return 0, fmt.Errorf("%w: not a capture file", telemetry.ErrMalformedPayload)
	}
	if h[6] != fileVersion {
		return 0, fmt.Errorf("%w: unsupported capture version %d", telemetry.ErrMalformedPayload, h[6])
	}
	csiLen := int(binary.BigEndian.Uint16(h[8:10]))
	if csiLen == 0 {
		return 0, fmt.Errorf("%w: header declares zero csi length", telemetry.ErrMalformedPayload)
	}
	return csiLen, nil
}

package magflow

import (
	"errors"
	"fmt"

	"github.com/cbowes/flowmeterd/pkg/checksum"
)

// The meter's sensor record is a fixed 32-byte block. Each field is
// followed by one trailing checksum byte, but the device validates the
// record with a single additive sum over the whole block: a record is
// good iff the sum of all 32 bytes mod 256 is zero. The per-field
// checksum bytes participate in that grand sum and are never checked
// individually. This matches observed device behavior; do not switch to
// per-field validation without confirming against the checksum
// generator in the meter firmware.
const FrameLength = 32

// Field offsets and widths within the record. Multi-byte values are
// stored least-significant byte first. Each span's checksum byte sits
// immediately after the span.
const (
	flowOffset       = 0 // 3 bytes, 24-bit signed-magnitude flow
	tempOffset       = 4 // 2 bytes, int16 hundredths of a degree C
	rangeOffset      = 7 // 3 bytes, 24-bit full-scale range
	serialOffset     = 11
	serialLength     = 10
	versionOffset    = 22 // 4 bytes, firmware version
	firmwareCkOffset = 27 // 4 bytes, firmware image checksum
)

// ErrChecksum indicates a sensor record failed whole-frame checksum
// validation. The record must be discarded; no fields are decoded.
var ErrChecksum = errors.New("frame checksum mismatch")

// Frame holds the raw integer fields decoded from one validated sensor
// record. Flow and range are kept in their raw 24-bit encodings;
// conversion to engineering units happens in ConvertFlow.
type Frame struct {
	FlowRaw    uint32 // 24-bit signed-magnitude
	TempRaw    int16  // hundredths of a degree C
	RangeRaw   uint32 // 24-bit full-scale range, flow units
	Serial     [serialLength]byte
	Version    [4]byte
	FirmwareCk [4]byte
}

// DecodeFrame validates a raw sensor record and extracts its fields.
// A checksum failure returns an error wrapping ErrChecksum and no
// frame; there is no partial acceptance.
func DecodeFrame(raw []byte) (*Frame, error) {
	if len(raw) != FrameLength {
		return nil, fmt.Errorf("invalid frame length: got %d bytes, want %d", len(raw), FrameLength)
	}

	if sum := checksum.Sum(raw); sum != 0 {
		return nil, fmt.Errorf("%w: frame sum 0x%02X", ErrChecksum, sum)
	}

	f := &Frame{
		FlowRaw:  leUint24(raw[flowOffset:]),
		TempRaw:  int16(leUint16(raw[tempOffset:])),
		RangeRaw: leUint24(raw[rangeOffset:]),
	}
	copy(f.Serial[:], raw[serialOffset:serialOffset+serialLength])
	copy(f.Version[:], raw[versionOffset:versionOffset+4])
	copy(f.FirmwareCk[:], raw[firmwareCkOffset:firmwareCkOffset+4])

	return f, nil
}

// SerialNumber returns the decoded serial number as a printable string,
// with trailing NUL padding stripped.
func (f *Frame) SerialNumber() string {
	b := f.Serial[:]
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// FirmwareVersion formats the 4-byte firmware version field as a
// dotted version string.
func (f *Frame) FirmwareVersion() string {
	return fmt.Sprintf("%d.%d.%d.%d", f.Version[0], f.Version[1], f.Version[2], f.Version[3])
}

// leUint16 and leUint24 reconstruct fixed-width integers by straight
// byte placement, first byte least significant.
func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func leUint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

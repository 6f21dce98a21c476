package magflow

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cbowes/flowmeterd/pkg/checksum"
)

// buildFrame assembles a valid 32-byte sensor record from raw field
// spans, appending the correct checksum byte after each span. Since
// every span+checksum sums to zero mod 256, the whole frame does too.
func buildFrame(flow, temp, rng, serial, version, fwck []byte) []byte {
	raw := make([]byte, 0, FrameLength)
	for _, span := range [][]byte{flow, temp, rng, serial, version, fwck} {
		raw = append(raw, span...)
		raw = append(raw, checksum.Byte(span))
	}
	return raw
}

func validFrame() []byte {
	return buildFrame(
		[]byte{0x10, 0x20, 0x00},             // flow 0x002010
		[]byte{0xE6, 0x09},                   // temp 2534 (25.34 C)
		[]byte{0xE8, 0x03, 0x00},             // range 1000
		[]byte("MF8041-007"),                 // serial
		[]byte{2, 1, 4, 0},                   // firmware version
		[]byte{0xDE, 0xAD, 0xBE, 0xEF},       // firmware checksum
	)
}

func TestDecodeFrameFields(t *testing.T) {
	raw := validFrame()
	if len(raw) != FrameLength {
		t.Fatalf("test frame is %d bytes, want %d", len(raw), FrameLength)
	}

	f, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}

	if f.FlowRaw != 0x002010 {
		t.Errorf("FlowRaw = 0x%06X, want 0x002010", f.FlowRaw)
	}
	if f.TempRaw != 2534 {
		t.Errorf("TempRaw = %d, want 2534", f.TempRaw)
	}
	if f.RangeRaw != 1000 {
		t.Errorf("RangeRaw = %d, want 1000", f.RangeRaw)
	}
	if got := f.SerialNumber(); got != "MF8041-007" {
		t.Errorf("SerialNumber() = %q, want %q", got, "MF8041-007")
	}
	if got := f.FirmwareVersion(); got != "2.1.4.0" {
		t.Errorf("FirmwareVersion() = %q, want %q", got, "2.1.4.0")
	}
	if !bytes.Equal(f.FirmwareCk[:], []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("FirmwareCk = % X, want DE AD BE EF", f.FirmwareCk)
	}
}

func TestDecodeFrameChecksumMismatch(t *testing.T) {
	raw := validFrame()

	// Corrupt every position in turn; a single flipped bit anywhere
	// must fail whole-frame validation.
	for i := 0; i < FrameLength; i++ {
		corrupted := append([]byte{}, raw...)
		corrupted[i] ^= 0x01

		f, err := DecodeFrame(corrupted)
		if err == nil {
			t.Fatalf("DecodeFrame accepted frame corrupted at byte %d", i)
		}
		if !errors.Is(err, ErrChecksum) {
			t.Errorf("byte %d: error %v does not wrap ErrChecksum", i, err)
		}
		if f != nil {
			t.Errorf("byte %d: got non-nil frame alongside error", i)
		}
	}
}

func TestDecodeFrameWholeFrameSumNotPerField(t *testing.T) {
	// Per-field checksum bytes exist in the layout but are never
	// independently validated. Zero out each field's checksum byte and
	// rebalance the grand sum in the last byte: every per-field check
	// would fail, yet the frame must decode.
	raw := validFrame()
	for _, ckOffset := range []int{3, 6, 10, 21, 26} {
		raw[ckOffset] = 0
	}
	raw[FrameLength-1] = 0
	raw[FrameLength-1] = checksum.Byte(raw[:FrameLength-1])

	f, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame rejected frame with valid grand sum: %v", err)
	}
	if f.FlowRaw != 0x002010 {
		t.Errorf("FlowRaw = 0x%06X, want 0x002010", f.FlowRaw)
	}
}

func TestDecodeFrameBadLength(t *testing.T) {
	for _, n := range []int{0, 1, FrameLength - 1, FrameLength + 1, 2 * FrameLength} {
		if _, err := DecodeFrame(make([]byte, n)); err == nil {
			t.Errorf("DecodeFrame accepted %d-byte input", n)
		}
	}
}

func TestDecodeFrameLittleEndianPlacement(t *testing.T) {
	raw := buildFrame(
		[]byte{0x01, 0x00, 0x80}, // sign bit in the last (most significant) byte
		[]byte{0xFE, 0xFF},       // -2 hundredths
		[]byte{0x00, 0x00, 0x01}, // range 0x010000
		make([]byte, serialLength),
		make([]byte, 4),
		make([]byte, 4),
	)

	f, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}

	if f.FlowRaw != 0x800001 {
		t.Errorf("FlowRaw = 0x%06X, want 0x800001", f.FlowRaw)
	}
	if f.TempRaw != -2 {
		t.Errorf("TempRaw = %d, want -2", f.TempRaw)
	}
	if f.RangeRaw != 0x010000 {
		t.Errorf("RangeRaw = 0x%06X, want 0x010000", f.RangeRaw)
	}
}

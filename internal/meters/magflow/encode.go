package magflow

import "github.com/cbowes/flowmeterd/pkg/checksum"

// EncodeFrame serializes a Frame into a valid 32-byte sensor record,
// per-field checksum bytes included. This is the device side of
// DecodeFrame, used by the emulator and by tests.
func EncodeFrame(f *Frame) []byte {
	spans := [][]byte{
		{byte(f.FlowRaw), byte(f.FlowRaw >> 8), byte(f.FlowRaw >> 16)},
		{byte(uint16(f.TempRaw)), byte(uint16(f.TempRaw) >> 8)},
		{byte(f.RangeRaw), byte(f.RangeRaw >> 8), byte(f.RangeRaw >> 16)},
		f.Serial[:],
		f.Version[:],
		f.FirmwareCk[:],
	}

	raw := make([]byte, 0, FrameLength)
	for _, span := range spans {
		raw = append(raw, span...)
		raw = append(raw, checksum.Byte(span))
	}
	return raw
}

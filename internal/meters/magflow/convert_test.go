package magflow

import (
	"math"
	"testing"
)

func TestConvertFlow(t *testing.T) {
	tests := []struct {
		name     string
		rawFlow  uint32
		rawRange uint32
		want     float64
	}{
		{"zero flow", 0x000000, 1000, 0},
		{"smallest positive", 0x000001, 1000, 1000.0 / 0x7FFFFF},
		{"full scale positive", 0x7FFFFF, 1000, 1000},
		{"smallest negative", 0xFFFFFF, 1000, -1000.0 / 0x7FFFFF},
		{"full scale negative", 0x800001, 1000, -1000},
		{"negative zero", 0x800000, 1000, 0},
		{"mid scale", 0x400000, 2000, 2000.0 * 0x400000 / 0x7FFFFF},
		{"mid scale negative", 0xC00000, 2000, -2000.0 * 0x400000 / 0x7FFFFF},
		{"zero range guards division", 0x123456, 0, 0},
		{"zero range with sign bit", 0xFFFFFF, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertFlow(tt.rawFlow, tt.rawRange)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertFlow(0x%06X, %d) = %v, want %v", tt.rawFlow, tt.rawRange, got, tt.want)
			}
		})
	}
}

func TestConvertFlowSignSymmetry(t *testing.T) {
	// For every magnitude m, the record for -m is the two's complement
	// of the record for +m within 24 bits. Conversion must be an odd
	// function over that encoding.
	magnitudes := []uint32{1, 0x000100, 0x010000, 0x3FFFFF, 0x7FFFFE, 0x7FFFFF}

	for _, m := range magnitudes {
		pos := ConvertFlow(m, 5000)
		neg := ConvertFlow((-m)&0xFFFFFF, 5000)
		if math.Abs(pos+neg) > 1e-9 {
			t.Errorf("magnitude 0x%06X: positive %v and negative %v are not symmetric", m, pos, neg)
		}
	}
}

func TestConvertTemperature(t *testing.T) {
	tests := []struct {
		raw  int16
		want float64
	}{
		{0, 0},
		{2534, 25.34},
		{-1050, -10.50},
		{1, 0.01},
		{-32768, -327.68},
	}

	for _, tt := range tests {
		if got := ConvertTemperature(tt.raw); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConvertTemperature(%d) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

package checksum

import "testing"

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint8
	}{
		{"empty", nil, 0},
		{"single byte", []byte{0x42}, 0x42},
		{"wraparound", []byte{0xFF, 0x02}, 0x01},
		{"all zeros", make([]byte, 32), 0},
		{"mixed", []byte{0x10, 0x20, 0x30}, 0x60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sum(tt.data); got != tt.want {
				t.Errorf("Sum(% X) = 0x%02X, want 0x%02X", tt.data, got, tt.want)
			}
		})
	}
}

func TestByteMakesSpanVerify(t *testing.T) {
	spans := [][]byte{
		{},
		{0x00},
		{0xE8, 0x03, 0x00},
		{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0},
		{0xFF, 0xFF, 0xFF},
	}

	for _, span := range spans {
		withCk := append(append([]byte{}, span...), Byte(span))
		if !Verify(withCk) {
			t.Errorf("Verify(% X) = false, want true", withCk)
		}
	}
}

func TestVerifyRejectsCorruption(t *testing.T) {
	span := []byte{0xE8, 0x03, 0x00}
	withCk := append(span, Byte(span))
	withCk[1] ^= 0x01

	if Verify(withCk) {
		t.Errorf("Verify(% X) = true after corruption, want false", withCk)
	}
}

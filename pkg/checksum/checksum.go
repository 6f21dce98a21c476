// Package checksum implements the additive mod-256 checksum used by
// magnetic flow meter sensor records.
package checksum

// Sum returns the 8-bit sum of all bytes in data, with wraparound and
// no carry.
func Sum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum
}

// Verify reports whether a byte span is self-consistent: the span is
// expected to end with a checksum byte chosen so that the sum of all
// bytes, checksum included, is zero mod 256.
func Verify(data []byte) bool {
	return Sum(data) == 0
}

// Byte returns the checksum byte that makes Sum(append(data, Byte(data)))
// equal to zero. Used by emulators and tests to build valid records.
func Byte(data []byte) uint8 {
	return uint8(0) - Sum(data)
}

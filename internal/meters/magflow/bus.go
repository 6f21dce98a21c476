package magflow

import (
	"fmt"

	"github.com/cbowes/flowmeterd/pkg/checksum"
)

// Bus read protocol: the host sends a 7-byte read command and the
// addressed meter answers with exactly the requested number of bytes.
// There is no framing on the response; the host must know the length.
//
//	SOH addr 'R' startLo startHi length ck
//
// ck makes the whole command sum to zero mod 256, same rule as the
// sensor record itself.
const (
	cmdSOH  = 0x01
	cmdRead = 0x52

	// ReadCommandLength is the fixed size of a read command.
	ReadCommandLength = 7

	// recordAddress is where the live sensor record starts in the
	// meter's register space.
	recordAddress = 0x0000
)

// BuildReadCommand assembles a read command for the given bus address,
// register start address and response length.
func BuildReadCommand(busAddr uint8, startAddr uint16, length uint8) []byte {
	cmd := []byte{
		cmdSOH,
		busAddr,
		cmdRead,
		byte(startAddr & 0xFF),
		byte(startAddr >> 8),
		length,
	}
	return append(cmd, checksum.Byte(cmd))
}

// ParseReadCommand validates a read command and returns its fields.
// Used by the device end of the bus (emulator, tests).
func ParseReadCommand(cmd []byte) (busAddr uint8, startAddr uint16, length uint8, err error) {
	if len(cmd) != ReadCommandLength {
		return 0, 0, 0, fmt.Errorf("invalid command length: got %d bytes, want %d", len(cmd), ReadCommandLength)
	}
	if cmd[0] != cmdSOH || cmd[2] != cmdRead {
		return 0, 0, 0, fmt.Errorf("malformed read command: % X", cmd)
	}
	if !checksum.Verify(cmd) {
		return 0, 0, 0, fmt.Errorf("read command checksum mismatch: % X", cmd)
	}
	return cmd[1], uint16(cmd[3]) | uint16(cmd[4])<<8, cmd[5], nil
}

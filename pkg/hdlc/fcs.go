package hdlc

import (
	"encoding/binary"

	"github.com/sigurn/crc16"
)

// HDLC uses the X.25 variant for both the header and frame check sequence.
var fcsTable = crc16.MakeTable(crc16.CRC16_X_25)

// Checksum calculates the frame check sequence of data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, fcsTable)
}

// AppendChecksum appends the check sequence of data to data, least significant
// octet first as it is sent on the wire.
func AppendChecksum(data []byte) []byte {
	return binary.LittleEndian.AppendUint16(data, Checksum(data))
}

func isGoodCheckSequence(data []byte, sequence []byte) bool {
	if len(sequence) != checkSequenceLen {
		return false
	}
	return Checksum(data) == binary.LittleEndian.Uint16(sequence)
}

// Package testutil builds meter wire fixtures for tests.
package testutil

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/sigurn/crc16"
)

var (
	x25Table = crc16.MakeTable(crc16.CRC16_X_25)
	arcTable = crc16.MakeTable(crc16.CRC16_ARC)
)

// DecodeHex decodes a hex fixture, ignoring spaces and line breaks.
func DecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	clean := strings.NewReplacer(" ", "", "\n", "", "\r", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}

// FrameContent returns the bytes of a type 3 frame between the flag sequences,
// with destination address 0x41, source address 0x0883 and control 0x13.
func FrameContent(information []byte, segmented bool) []byte {
	header := []byte{0x00, 0x00, 0x41, 0x08, 0x83, 0x13}
	length := len(header) + 2
	if len(information) > 0 {
		length += 2 + len(information)
	}
	ffc := uint16(0xA000) | uint16(length)
	if segmented {
		ffc |= 0x0800
	}
	binary.BigEndian.PutUint16(header, ffc)

	raw := append([]byte(nil), header...)
	if len(information) > 0 {
		raw = binary.LittleEndian.AppendUint16(raw, crc16.Checksum(raw, x25Table))
		raw = append(raw, information...)
	}
	return binary.LittleEndian.AppendUint16(raw, crc16.Checksum(raw, x25Table))
}

// Frame returns a complete wire frame including both flag sequences.
func Frame(information []byte) []byte {
	return Flagged(FrameContent(information, false))
}

// SegmentedFrame returns a wire frame with the segmentation bit set.
func SegmentedFrame(information []byte) []byte {
	return Flagged(FrameContent(information, true))
}

// Flagged wraps content in flag sequences.
func Flagged(content []byte) []byte {
	out := make([]byte, 0, len(content)+2)
	out = append(out, 0x7E)
	out = append(out, content...)
	return append(out, 0x7E)
}

// P1Telegram builds a DataReadout with a valid CRC from an identification and
// data lines.
func P1Telegram(identification string, lines ...string) []byte {
	var b strings.Builder
	b.WriteString("/" + identification + "\r\n\r\n")
	for _, line := range lines {
		b.WriteString(line + "\r\n")
	}
	b.WriteString("!")
	body := b.String()
	return []byte(fmt.Sprintf("%s%04X\r\n", body, crc16.Checksum([]byte(body), arcTable)))
}

package hdlc

import (
	"encoding/binary"
	"fmt"
)

// NewFrame parses the unescaped bytes between two flag sequences. Structural
// problems are reported by the validity methods, never as an error.
func NewFrame(raw []byte) *Frame {
	f := &Frame{raw: append([]byte(nil), raw...)}
	f.parseHeader()

	f.expectedLength = len(f.raw) >= 2 && int(f.FrameLength()) == len(f.raw)
	f.goodFCS = len(f.raw) >= 2 && isGoodCheckSequence(f.raw[:len(f.raw)-2], f.raw[len(f.raw)-2:])
	f.goodHCS = !f.hasHCS || isGoodCheckSequence(f.raw[:f.headerEnd], f.raw[f.headerEnd:f.headerEnd+2])
	f.goodFFC = f.headerParsed && f.FormatType() == FrameFormatType3 && f.goodHCS

	if f.goodFFC && f.expectedLength && f.goodFCS && f.hasHCS {
		info := f.raw[f.headerEnd+2 : len(f.raw)-2]
		if len(info) > 0 {
			f.information = info
		}
	}
	return f
}

func (f *Frame) parseHeader() {
	if len(f.raw) < 2 {
		return
	}
	f.frameFormat = binary.BigEndian.Uint16(f.raw[:2])

	pos := 2
	dest, ok := readAddress(f.raw[pos:])
	if !ok {
		return
	}
	pos += len(dest)

	src, ok := readAddress(f.raw[pos:])
	if !ok {
		return
	}
	pos += len(src)

	if pos >= len(f.raw) {
		return
	}
	f.destinationAddress = dest
	f.sourceAddress = src
	f.control = f.raw[pos]
	pos++

	// What follows the control field is either a lone FCS, or HCS + information + FCS.
	switch remaining := len(f.raw) - pos; {
	case remaining == checkSequenceLen:
	case remaining >= 2*checkSequenceLen:
		f.hasHCS = true
	default:
		return
	}
	f.headerEnd = pos
	f.headerParsed = true
}

// readAddress reads an address field where the last octet has its least
// significant bit set.
func readAddress(data []byte) ([]byte, bool) {
	for i := 0; i < len(data) && i < maxAddressLength; i++ {
		if data[i]&0x01 == 0x01 {
			return data[:i+1], true
		}
	}
	return nil, false
}

// Raw returns the unescaped frame bytes without flag sequences.
func (f *Frame) Raw() []byte {
	return f.raw
}

// FrameFormat returns the two octet frame format field.
func (f *Frame) FrameFormat() uint16 {
	return f.frameFormat
}

// FormatType is the frame format type nibble of the FFC.
func (f *Frame) FormatType() int {
	return int(f.frameFormat >> 12)
}

// IsSegmented reports whether more segments of the information follow.
func (f *Frame) IsSegmented() bool {
	return f.frameFormat&0x0800 != 0
}

// FrameLength is the declared length of the frame excluding flag sequences.
func (f *Frame) FrameLength() uint16 {
	return f.frameFormat & MaxFrameLength
}

func (f *Frame) DestinationAddress() []byte {
	return f.destinationAddress
}

func (f *Frame) SourceAddress() []byte {
	return f.sourceAddress
}

func (f *Frame) Control() byte {
	return f.control
}

// IsGoodFFC reports whether the frame format field and header are consistent:
// format type 3, parseable addresses and control field and a matching header
// check sequence when one is present.
func (f *Frame) IsGoodFFC() bool {
	return f.goodFFC
}

// IsGoodHCS reports whether the header check sequence matches. Frames without
// an information field carry no HCS and always report true.
func (f *Frame) IsGoodHCS() bool {
	return f.goodHCS
}

// IsGoodFCS reports whether the trailing frame check sequence matches.
func (f *Frame) IsGoodFCS() bool {
	return f.goodFCS
}

// IsExpectedLength reports whether the frame has the length declared in the
// frame format field.
func (f *Frame) IsExpectedLength() bool {
	return f.expectedLength
}

// IsValid is true when format, length and checksum all hold.
func (f *Frame) IsValid() bool {
	return f.goodFFC && f.expectedLength && f.goodFCS
}

// Information returns the information field, or nil when the frame is not
// valid or carries no information.
func (f *Frame) Information() []byte {
	return f.information
}

func (f *Frame) String() string {
	return fmt.Sprintf(
		"hdlc frame (len %d, declared %d, ffc ok %t, fcs ok %t, segmented %t, info %d bytes)",
		len(f.raw), f.FrameLength(), f.goodFFC, f.goodFCS, f.IsSegmented(), len(f.information),
	)
}

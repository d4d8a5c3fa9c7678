// Package hdlc extracts HDLC frames (IEC 62056-46 frame format type 3) from the
// byte stream sent by smart meters on the HAN/P1 port.
package hdlc

const (
	// FlagSequence opens and closes every frame.
	FlagSequence byte = 0x7E
	// ControlEscape precedes an escaped octet when octet stuffing is used.
	ControlEscape byte = 0x7D
	// EscapeMask is xor'ed with the octet following ControlEscape.
	EscapeMask byte = 0x20

	// FrameFormatType3 is the only frame format type used by DLMS meters.
	FrameFormatType3 = 0xA

	// Largest frame length the 11 bit length field can express.
	MaxFrameLength = 0x07FF

	maxAddressLength = 4
	checkSequenceLen = 2
)

// Frame is one frame found between two flag sequences. The raw bytes are
// unescaped and do not include the flag sequences. A Frame never changes after
// it is created.
type Frame struct {
	raw []byte

	frameFormat        uint16
	destinationAddress []byte
	sourceAddress      []byte
	control            byte
	headerEnd          int // offset of HCS, or of FCS when there is no information field
	hasHCS             bool
	headerParsed       bool

	goodFFC        bool
	goodHCS        bool
	goodFCS        bool
	expectedLength bool
	information    []byte
}

// ReaderOption configures a FrameReader.
type ReaderOption func(*FrameReader)

// FrameReader is a stateful scanner that returns complete frames from a byte
// stream delivered in arbitrary chunks. It is not safe for concurrent use.
type FrameReader struct {
	useOctetStuffing bool
	assumeFrameStart bool

	buffer  []byte
	inFrame bool
	escaped bool
}

// SegmentAssembler joins the information fields of segmented frames.
type SegmentAssembler struct {
	information []byte
	segments    int
}

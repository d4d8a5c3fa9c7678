package hdlc

import (
	"bytes"
	"encoding/binary"
)

// Largest buffer the reader keeps before it gives up on the current frame and
// hunts for the next flag sequence.
const maxBufferedFrame = MaxFrameLength + checkSequenceLen

// WithAssumeFrameStart makes the reader treat a chunk that does not begin
// with a flag sequence as if it did, when the reader is not already inside a
// frame. Used for payloads where the framing was stripped by a gateway.
func WithAssumeFrameStart() ReaderOption {
	return func(r *FrameReader) {
		r.assumeFrameStart = true
	}
}

// NewFrameReader creates a reader. With octet stuffing the reader unescapes
// 0x7D sequences and honours the abort sequence. Without it, a flag octet seen
// before the declared frame length is reached is kept as frame content.
func NewFrameReader(useOctetStuffing bool, opts ...ReaderOption) *FrameReader {
	r := &FrameReader{
		useOctetStuffing: useOctetStuffing,
		buffer:           make([]byte, 0, 512),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read adds chunk to the reader and returns the frames completed by it, in
// arrival order. Bytes after the last flag sequence are kept for the next call.
func (r *FrameReader) Read(chunk []byte) []*Frame {
	var frames []*Frame

	for i, b := range chunk {
		if !r.inFrame {
			switch {
			case b == FlagSequence:
				r.inFrame = true
				continue
			case i == 0 && r.assumeFrameStart:
				r.inFrame = true
			default:
				// hunting for a flag sequence
				continue
			}
		}

		if b == FlagSequence {
			if r.escaped {
				// abort sequence, drop the frame in progress
				r.escaped = false
				r.buffer = r.buffer[:0]
				continue
			}
			if !r.useOctetStuffing && r.isFlagInsideFrame() {
				r.buffer = append(r.buffer, b)
				continue
			}
			if len(r.buffer) > 0 {
				frames = append(frames, NewFrame(r.buffer))
				r.buffer = r.buffer[:0]
			}
			continue
		}

		if r.useOctetStuffing {
			if r.escaped {
				b ^= EscapeMask
				r.escaped = false
			} else if b == ControlEscape {
				r.escaped = true
				continue
			}
		}

		r.buffer = append(r.buffer, b)
		if len(r.buffer) > maxBufferedFrame {
			r.Reset()
		}
	}

	return frames
}

// Reset drops buffered bytes and returns the reader to hunt mode.
func (r *FrameReader) Reset() {
	r.buffer = r.buffer[:0]
	r.inFrame = false
	r.escaped = false
}

// Buffered returns the number of bytes waiting for a closing flag sequence.
func (r *FrameReader) Buffered() int {
	return len(r.buffer)
}

// isFlagInsideFrame reports whether a flag octet arriving now belongs to a
// type 3 frame whose header checked out and which has not reached its declared
// length yet. The flag is also kept when it is the HCS octet due next. Until
// the header is buffered a flag always closes the interval.
func (r *FrameReader) isFlagInsideFrame() bool {
	buf := r.buffer
	pos, ok := headerLength(buf)
	if !ok {
		return false
	}

	var hcs [checkSequenceLen]byte
	binary.LittleEndian.PutUint16(hcs[:], Checksum(buf[:pos]))
	if n := len(buf) - pos; n < checkSequenceLen {
		if !bytes.Equal(buf[pos:], hcs[:n]) || hcs[n] != FlagSequence {
			return false
		}
	} else if !bytes.Equal(buf[pos:pos+checkSequenceLen], hcs[:]) {
		return false
	}

	declared := int(buf[0]&0x07)<<8 | int(buf[1])
	return len(buf) < declared
}

// headerLength returns the length of the frame format, address and control
// fields at the start of buf, once all of them are buffered.
func headerLength(buf []byte) (int, bool) {
	if len(buf) < 2 || buf[0]>>4 != FrameFormatType3 {
		return 0, false
	}
	pos := 2
	dest, ok := readAddress(buf[pos:])
	if !ok {
		return 0, false
	}
	pos += len(dest)
	src, ok := readAddress(buf[pos:])
	if !ok {
		return 0, false
	}
	pos += len(src) + 1
	if len(buf) < pos {
		return 0, false
	}
	return pos, true
}

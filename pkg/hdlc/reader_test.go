package hdlc

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/NotCoffee418/amshan_reader/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestReadSingleFrame(t *testing.T) {
	wire := testutil.Frame([]byte{0x01, 0x02})

	frames := NewFrameReader(false).Read(wire)

	require.Len(t, frames, 1)
	f := frames[0]
	require.Equal(t, []byte{0x01, 0x02}, f.Information())
	require.True(t, f.IsGoodFFC())
	require.True(t, f.IsExpectedLength())
	require.True(t, f.IsGoodFCS())
	require.True(t, f.IsValid())
	require.Equal(t, []byte{0x41}, f.DestinationAddress())
	require.Equal(t, []byte{0x08, 0x83}, f.SourceAddress())
	require.Equal(t, byte(0x13), f.Control())
	require.False(t, f.IsSegmented())
}

func TestReadCorruptedPayloadFailsChecksum(t *testing.T) {
	wire := testutil.Frame([]byte{0x01, 0x02})
	// flag + 6 header + 2 HCS, last information byte follows
	wire[10] = 0x03

	frames := NewFrameReader(false).Read(wire)

	require.Len(t, frames, 1)
	f := frames[0]
	require.True(t, f.IsGoodFFC())
	require.True(t, f.IsExpectedLength())
	require.False(t, f.IsGoodFCS())
	require.Nil(t, f.Information())
}

func TestReadSplitChunksEquivalent(t *testing.T) {
	info := []byte{0xE6, 0xE7, 0x00, 0x0F, 0x40, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02}
	wire := testutil.Frame(info)

	for split := 1; split < len(wire); split++ {
		r := NewFrameReader(false)
		first := r.Read(wire[:split])
		require.Empty(t, first, "split %d", split)

		second := r.Read(wire[split:])
		require.Len(t, second, 1, "split %d", split)
		require.Equal(t, info, second[0].Information(), "split %d", split)
		require.Equal(t, wire[1:len(wire)-1], second[0].Raw(), "split %d", split)
	}
}

func TestReadSingleByteFlipNeverValid(t *testing.T) {
	wire := testutil.Frame([]byte{0x10, 0x20, 0x30, 0x40})

	// every byte between the flags except the trailing FCS
	for i := 1; i < len(wire)-3; i++ {
		corrupted := append([]byte(nil), wire...)
		flipped := corrupted[i] ^ 0x01
		if flipped == FlagSequence {
			flipped = corrupted[i] ^ 0x02
		}
		corrupted[i] = flipped

		for _, f := range NewFrameReader(false).Read(corrupted) {
			require.False(t, f.IsValid(), "byte %d", i)
			require.Nil(t, f.Information(), "byte %d", i)
		}
	}
}

func TestReadGarbageWithoutFlagThenFrame(t *testing.T) {
	r := NewFrameReader(false)
	garbage := []byte{0x01, 0x55, 0xAA, 0x23, 0x00, 0xFF, 0x7D, 0x11}

	require.Empty(t, r.Read(garbage))
	require.Empty(t, r.Read(garbage))

	frames := r.Read(testutil.Frame([]byte{0x01, 0x02}))
	require.Len(t, frames, 1)
	require.Equal(t, []byte{0x01, 0x02}, frames[0].Information())
}

func TestReadSkipsEmptyIntervals(t *testing.T) {
	content := testutil.FrameContent([]byte{0x01}, false)
	var wire []byte
	wire = append(wire, 0x7E, 0x7E, 0x7E)
	wire = append(wire, content...)
	wire = append(wire, 0x7E, 0x7E)

	frames := NewFrameReader(false).Read(wire)
	require.Len(t, frames, 1)
	require.True(t, frames[0].IsValid())
}

func TestReadFramesSharingFlag(t *testing.T) {
	first := testutil.FrameContent([]byte{0x01}, false)
	second := testutil.FrameContent([]byte{0x02, 0x03}, false)
	wire := []byte{0x7E}
	wire = append(wire, first...)
	wire = append(wire, 0x7E)
	wire = append(wire, second...)
	wire = append(wire, 0x7E)

	frames := NewFrameReader(false).Read(wire)
	require.Len(t, frames, 2)
	require.Equal(t, []byte{0x01}, frames[0].Information())
	require.Equal(t, []byte{0x02, 0x03}, frames[1].Information())
}

func TestReadKeepsTrailingPartialFrame(t *testing.T) {
	r := NewFrameReader(false)
	wire := append(testutil.Frame([]byte{0x01}), testutil.Frame([]byte{0x02})[:5]...)

	frames := r.Read(wire)
	require.Len(t, frames, 1)
	require.Equal(t, 4, r.Buffered())
}

func TestReadFlagInsideInformationWithoutStuffing(t *testing.T) {
	info := []byte{0x01, 0x7E, 0x02, 0x7E}
	frames := NewFrameReader(false).Read(testutil.Frame(info))

	require.Len(t, frames, 1)
	require.Equal(t, info, frames[0].Information())
}

func validInformation(frames []*Frame) [][]byte {
	var out [][]byte
	for _, f := range frames {
		if f.IsValid() {
			out = append(out, f.Information())
		}
	}
	return out
}

func TestReadNoiseLookingLikeHeaderDoesNotSwallowFlags(t *testing.T) {
	r := NewFrameReader(false)
	require.Len(t, validInformation(r.Read(testutil.Frame([]byte{0x01}))), 1)

	// format type 3 with a long declared length
	r.Read([]byte{0xA7, 0xFF, 0x11})

	for i := 0; i < 5; i++ {
		info := []byte{byte(i), 0x20}
		require.Equal(t, [][]byte{info}, validInformation(r.Read(testutil.Frame(info))), "frame %d", i)
	}
	require.Zero(t, r.Buffered())
}

func TestReadRandomNoiseBetweenFrames(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := NewFrameReader(false)

	for trial := 0; trial < 1000; trial++ {
		noise := make([]byte, 1+rng.Intn(32))
		for i := range noise {
			noise[i] = byte(rng.Intn(256))
			if noise[i] == FlagSequence {
				noise[i] = 0xA0
			}
		}
		info := []byte{byte(trial), byte(trial >> 8)}

		var wire []byte
		wire = append(wire, testutil.Frame([]byte{0x01})...)
		wire = append(wire, noise...)
		wire = append(wire, testutil.Frame(info)...)

		got := validInformation(r.Read(wire))
		require.Len(t, got, 2, "trial %d noise % X", trial, noise)
		require.Equal(t, info, got[1], "trial %d", trial)
		require.Zero(t, r.Buffered(), "trial %d", trial)
	}
}

func TestReadRecoversAfterTruncatedFrame(t *testing.T) {
	lost := testutil.Frame([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	// control field and HCS lost in transit
	lost = append(lost[:6:6], lost[9:]...)

	wire := append([]byte(nil), lost...)
	var want [][]byte
	for i := 0; i < 4; i++ {
		info := []byte{byte(0x10 + i), 0x20}
		want = append(want, info)
		wire = append(wire, testutil.Frame(info)...)
	}

	require.Equal(t, want, validInformation(NewFrameReader(false).Read(wire)))
}

func TestReadFlagInsideHeaderCheckSequence(t *testing.T) {
	// information lengths whose headers get HCS 7E BC and 27 7E
	for _, n := range []int{211, 229} {
		info := bytes.Repeat([]byte{0x11}, n)
		wire := testutil.Frame(info)
		require.Contains(t, [][]byte{{0x7E, 0xBC}, {0x27, 0x7E}}, wire[7:9])

		frames := NewFrameReader(false).Read(wire)
		require.Len(t, frames, 1, "length %d", n)
		require.True(t, frames[0].IsValid(), "length %d", n)
		require.Equal(t, info, frames[0].Information())
	}
}

func TestReadOctetStuffing(t *testing.T) {
	info := []byte{0x01, 0x7E, 0x7D, 0x02}
	content := testutil.FrameContent(info, false)
	wire := testutil.Flagged(stuff(content))

	frames := NewFrameReader(true).Read(wire)
	require.Len(t, frames, 1)
	require.Equal(t, info, frames[0].Information())
}

func TestReadAbortSequence(t *testing.T) {
	aborted := testutil.FrameContent([]byte{0x09, 0x09}, false)[:5]
	wire := []byte{0x7E}
	wire = append(wire, aborted...)
	wire = append(wire, ControlEscape, FlagSequence)
	wire = append(wire, stuff(testutil.FrameContent([]byte{0x01}, false))...)
	wire = append(wire, 0x7E)

	frames := NewFrameReader(true).Read(wire)
	require.Len(t, frames, 1)
	require.Equal(t, []byte{0x01}, frames[0].Information())
}

func TestReadAssumeFrameStart(t *testing.T) {
	content := testutil.FrameContent([]byte{0x01, 0x02}, false)

	r := NewFrameReader(false, WithAssumeFrameStart())
	frames := r.Read(append(append([]byte(nil), content...), 0x7E))
	require.Len(t, frames, 1)
	require.Equal(t, []byte{0x01, 0x02}, frames[0].Information())

	plain := NewFrameReader(false)
	for _, f := range plain.Read(append(append([]byte(nil), content...), 0x7E)) {
		require.False(t, f.IsValid())
	}
}

func TestReadDropsOversizedBuffer(t *testing.T) {
	r := NewFrameReader(true)
	r.Read([]byte{0x7E})
	r.Read(bytes.Repeat([]byte{0x01}, maxBufferedFrame+1))
	require.Zero(t, r.Buffered())

	frames := r.Read(testutil.Flagged(stuff(testutil.FrameContent([]byte{0x05}, false))))
	require.Len(t, frames, 1)
	require.True(t, frames[0].IsValid())
}

func TestFrameWithoutInformation(t *testing.T) {
	content := testutil.FrameContent(nil, false)
	f := NewFrame(content)

	require.True(t, f.IsValid())
	require.True(t, f.IsGoodHCS())
	require.Nil(t, f.Information())
}

func TestFrameStructuralFailures(t *testing.T) {
	cases := map[string][]byte{
		"single byte":      {0xA0},
		"no address end":   {0xA0, 0x08, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40},
		"wrong format":     {0x30, 0x08, 0x41, 0x03, 0x13, 0x00, 0x00, 0x00},
		"truncated header": {0xA0, 0x03, 0x41},
	}
	for name, raw := range cases {
		f := NewFrame(raw)
		require.False(t, f.IsGoodFFC(), name)
		require.False(t, f.IsValid(), name)
		require.Nil(t, f.Information(), name)
	}
}

func TestFrameBadHeaderCheckSequence(t *testing.T) {
	content := testutil.FrameContent([]byte{0x01, 0x02}, false)
	content[6] ^= 0xFF

	f := NewFrame(content)
	require.False(t, f.IsGoodHCS())
	require.False(t, f.IsGoodFFC())
	require.Nil(t, f.Information())
}

func TestSegmentAssembler(t *testing.T) {
	r := NewFrameReader(false)
	var a SegmentAssembler

	frames := r.Read(testutil.SegmentedFrame([]byte{0x01, 0x02}))
	require.Len(t, frames, 1)
	require.True(t, frames[0].IsSegmented())
	_, done := a.Add(frames[0])
	require.False(t, done)
	require.Equal(t, 1, a.Pending())

	frames = r.Read(testutil.Frame([]byte{0x03}))
	require.Len(t, frames, 1)
	info, done := a.Add(frames[0])
	require.True(t, done)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, info)
	require.Zero(t, a.Pending())
}

func TestSegmentAssemblerResetsOnInvalidFrame(t *testing.T) {
	var a SegmentAssembler
	a.Add(NewFrame(testutil.FrameContent([]byte{0x01}, true)))

	bad := testutil.FrameContent([]byte{0x02}, false)
	bad[len(bad)-1] ^= 0xFF
	_, done := a.Add(NewFrame(bad))
	require.False(t, done)
	require.Zero(t, a.Pending())
}

func stuff(content []byte) []byte {
	var out []byte
	for _, b := range content {
		if b == FlagSequence || b == ControlEscape {
			out = append(out, ControlEscape, b^EscapeMask)
			continue
		}
		out = append(out, b)
	}
	return out
}

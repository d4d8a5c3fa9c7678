package detector

import (
	"bytes"
	"encoding/json"

	"github.com/NotCoffee418/amshan_reader/pkg/dlde"
	"github.com/NotCoffee418/amshan_reader/pkg/hdlc"
	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

// Classify decides what payload holds. It tries, in order, a P1 readout when
// the payload starts with '/', an HDLC frame, a JSON document and finally
// falls back to unframed DLMS data. It never fails.
func Classify(payload []byte) Classification {
	c := classify(payload)
	metrics.RecordDetected(c.Kind.String())
	return c
}

// MeterMessage returns the message in payload, or nil when the payload holds
// nothing that can be decoded.
func MeterMessage(payload []byte) types.Message {
	c := Classify(payload)
	if !c.Decodable() {
		return nil
	}
	return c.Message
}

func classify(payload []byte) Classification {
	logger := log.With().Str("component", "detector").Logger()

	if len(payload) > 0 && payload[0] == dlde.StartCharacter {
		readout, err := dlde.Parse(payload)
		if err == nil {
			msg := types.NewP1Message(readout)
			if !readout.IsValid() {
				logger.Debug().Msg("P1 readout with bad checksum")
				return Classification{Kind: KindInvalidP1, Message: msg}
			}
			return Classification{Kind: KindP1, Message: msg}
		}
		logger.Debug().Err(err).Msg("payload starting with '/' is not a P1 readout")
	}

	if frame := readFrame(payload); frame != nil {
		msg := types.NewHdlcMessage(frame)
		switch {
		case frame.IsValid() && frame.Information() != nil:
			return Classification{Kind: KindHdlc, Message: msg}
		case frame.IsValid():
			logger.Debug().Str("frame", frame.String()).Msg("HDLC frame without information")
		default:
			logger.Debug().Str("frame", frame.String()).Msg("invalid HDLC frame")
		}
		return Classification{Kind: KindInvalidHdlc, Message: msg}
	}

	if json.Valid(payload) {
		logger.Debug().Int("length", len(payload)).Msg("ignoring JSON payload")
		return Classification{Kind: KindIgnoredJSON}
	}

	return Classification{Kind: KindDlms, Message: types.NewDlmsMessage(payload)}
}

// readFrame returns the first frame in payload. Missing flag sequences are
// added at either end. A frame whose format field does not name frame format
// type 3 means the payload is not HDLC framed at all.
func readFrame(payload []byte) *hdlc.Frame {
	if len(payload) == 0 {
		return nil
	}

	reader := hdlc.NewFrameReader(false)
	if payload[0] != hdlc.FlagSequence {
		reader.Read([]byte{hdlc.FlagSequence})
	}
	frames := reader.Read(payload)
	if len(frames) == 0 {
		frames = reader.Read([]byte{hdlc.FlagSequence})
	}
	if len(frames) == 0 {
		// a frame shorter than its declared length swallows the closing flag
		content := bytes.Trim(payload, string(hdlc.FlagSequence))
		if len(content) < 2 || content[0]>>4 != hdlc.FrameFormatType3 {
			return nil
		}
		return hdlc.NewFrame(content)
	}

	frame := frames[0]
	if len(frame.Raw()) < 2 || frame.FormatType() != hdlc.FrameFormatType3 {
		return nil
	}
	return frame
}

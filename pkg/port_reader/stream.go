package port_reader

import (
	"github.com/NotCoffee418/amshan_reader/pkg/dlde"
	"github.com/NotCoffee418/amshan_reader/pkg/hdlc"
	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

func NewMessageStream() *MessageStream {
	return &MessageStream{
		frames:    hdlc.NewFrameReader(false),
		telegrams: dlde.NewTelegramReader(),
	}
}

// Read feeds chunk to the stream and returns the valid messages it completes.
// Frames and readouts that fail validation are logged and dropped.
func (s *MessageStream) Read(chunk []byte) []types.Message {
	var messages []types.Message

	if s.mode != modeP1 {
		hdlcMessages := s.readFrames(chunk)
		if len(hdlcMessages) > 0 && s.mode == modeDetect {
			log.Debug().Str("component", "stream").Msg("locked onto HDLC framing")
			s.mode = modeHdlc
			s.telegrams.Reset()
		}
		messages = append(messages, hdlcMessages...)
	}

	if s.mode != modeHdlc {
		p1Messages := s.readTelegrams(chunk)
		if len(p1Messages) > 0 && s.mode == modeDetect {
			log.Debug().Str("component", "stream").Msg("locked onto P1 readouts")
			s.mode = modeP1
			s.frames.Reset()
			s.segments.Reset()
		}
		messages = append(messages, p1Messages...)
	}

	return messages
}

// Reset drops partial frames and readouts and forgets the detected framing.
// Called after a reconnect.
func (s *MessageStream) Reset() {
	s.frames.Reset()
	s.segments.Reset()
	s.telegrams.Reset()
	s.mode = modeDetect
}

func (s *MessageStream) readFrames(chunk []byte) []types.Message {
	var messages []types.Message
	for _, frame := range s.frames.Read(chunk) {
		metrics.RecordFrame(frame.IsValid())
		if !frame.IsValid() {
			if s.mode == modeHdlc {
				log.Debug().Str("component", "stream").Str("frame", frame.String()).Msg("dropping invalid HDLC frame")
			}
			s.segments.Reset()
			continue
		}

		joined := s.segments.Pending() > 0
		information, done := s.segments.Add(frame)
		if !done {
			continue
		}
		if joined {
			messages = append(messages, types.NewSegmentedHdlcMessage(frame, information))
		} else {
			messages = append(messages, types.NewHdlcMessage(frame))
		}
	}
	return messages
}

func (s *MessageStream) readTelegrams(chunk []byte) []types.Message {
	var messages []types.Message
	for _, telegram := range s.telegrams.Read(chunk) {
		readout, err := dlde.Parse(telegram)
		if err != nil {
			log.Debug().Str("component", "stream").Err(err).Msg("dropping malformed P1 readout")
			continue
		}
		if !readout.IsValid() {
			log.Debug().Str("component", "stream").Uint16("checksum", readout.Checksum()).Msg("dropping P1 readout with bad checksum")
			continue
		}
		messages = append(messages, types.NewP1Message(readout))
	}
	return messages
}

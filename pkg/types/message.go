// Package types holds the values passed between the readers, the queue and the
// decoder.
package types

import (
	"github.com/NotCoffee418/amshan_reader/pkg/dlde"
	"github.com/NotCoffee418/amshan_reader/pkg/hdlc"
)

type MessageType int

const (
	MessageTypeStop MessageType = iota
	MessageTypeHdlc
	MessageTypeP1
	MessageTypeDlms
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeStop:
		return "stop"
	case MessageTypeHdlc:
		return "hdlc"
	case MessageTypeP1:
		return "p1"
	case MessageTypeDlms:
		return "dlms"
	}
	return "unknown"
}

// Message is one unit received from a meter. The set of implementations is
// closed: *HdlcMessage, *P1Message, *DlmsMessage and StopMessage.
type Message interface {
	MessageType() MessageType
	IsValid() bool
	// Bytes is the message as received, nil for StopMessage.
	Bytes() []byte
	// Payload is the decodable content, nil when there is none.
	Payload() []byte

	message()
}

// HdlcMessage carries a frame and the information field of the message it
// completes, joined across segments.
type HdlcMessage struct {
	frame   *hdlc.Frame
	payload []byte
}

// NewHdlcMessage wraps a single, unsegmented frame.
func NewHdlcMessage(frame *hdlc.Frame) *HdlcMessage {
	return &HdlcMessage{frame: frame, payload: frame.Information()}
}

// NewSegmentedHdlcMessage wraps the last frame of a segmented message with the
// information of all its segments.
func NewSegmentedHdlcMessage(last *hdlc.Frame, information []byte) *HdlcMessage {
	return &HdlcMessage{frame: last, payload: information}
}

func (m *HdlcMessage) Frame() *hdlc.Frame       { return m.frame }
func (m *HdlcMessage) MessageType() MessageType { return MessageTypeHdlc }
func (m *HdlcMessage) IsValid() bool            { return m.frame.IsValid() }
func (m *HdlcMessage) Bytes() []byte            { return m.frame.Raw() }
func (m *HdlcMessage) message()                 {}

func (m *HdlcMessage) Payload() []byte {
	if !m.IsValid() {
		return nil
	}
	return m.payload
}

// P1Message carries an ASCII data readout.
type P1Message struct {
	readout *dlde.Readout
}

func NewP1Message(readout *dlde.Readout) *P1Message {
	return &P1Message{readout: readout}
}

func (m *P1Message) Readout() *dlde.Readout   { return m.readout }
func (m *P1Message) MessageType() MessageType { return MessageTypeP1 }
func (m *P1Message) IsValid() bool            { return m.readout.IsValid() }
func (m *P1Message) Bytes() []byte            { return m.readout.Raw() }
func (m *P1Message) message()                 {}

func (m *P1Message) Payload() []byte {
	if !m.IsValid() {
		return nil
	}
	return m.readout.Raw()
}

// DlmsMessage carries DLMS data without HDLC framing, as published by
// gateways that strip the frame.
type DlmsMessage struct {
	data []byte
}

func NewDlmsMessage(data []byte) *DlmsMessage {
	return &DlmsMessage{data: append([]byte(nil), data...)}
}

func (m *DlmsMessage) MessageType() MessageType { return MessageTypeDlms }
func (m *DlmsMessage) IsValid() bool            { return len(m.data) > 4 }
func (m *DlmsMessage) Bytes() []byte            { return m.data }
func (m *DlmsMessage) Payload() []byte          { return m.data }
func (m *DlmsMessage) message()                 {}

// StopMessage tells the consumer of a queue that no more messages follow. It
// is never valid and carries nothing.
type StopMessage struct{}

func (StopMessage) MessageType() MessageType { return MessageTypeStop }
func (StopMessage) IsValid() bool            { return false }
func (StopMessage) Bytes() []byte            { return nil }
func (StopMessage) Payload() []byte          { return nil }
func (StopMessage) message()                 {}

// IsStop reports whether msg is the stop sentinel.
func IsStop(msg Message) bool {
	_, ok := msg.(StopMessage)
	return ok
}

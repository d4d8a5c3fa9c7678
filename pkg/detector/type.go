// Package detector classifies payloads of unknown format, such as MQTT
// messages relayed from a meter, into meter messages.
package detector

import "github.com/NotCoffee418/amshan_reader/pkg/types"

// Kind is the outcome of classifying a payload.
type Kind int

const (
	// KindDlms is a payload passed on as unframed DLMS data.
	KindDlms Kind = iota
	KindP1
	KindInvalidP1
	KindHdlc
	// KindInvalidHdlc is a frame that failed its checks or carried no
	// information.
	KindInvalidHdlc
	// KindIgnoredJSON is a JSON document, typically a gateway status message.
	KindIgnoredJSON
)

func (k Kind) String() string {
	switch k {
	case KindDlms:
		return "dlms"
	case KindP1:
		return "p1"
	case KindInvalidP1:
		return "invalid_p1"
	case KindHdlc:
		return "hdlc"
	case KindInvalidHdlc:
		return "invalid_hdlc"
	case KindIgnoredJSON:
		return "ignored_json"
	}
	return "unknown"
}

// Classification is the result of Classify. Message is nil for ignored JSON.
type Classification struct {
	Kind    Kind
	Message types.Message
}

// Decodable reports whether the payload gave a message worth decoding.
func (c Classification) Decodable() bool {
	return c.Message != nil && c.Message.IsValid() && len(c.Message.Payload()) > 0
}

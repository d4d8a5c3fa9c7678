// Package processor runs the receive loop that decodes queued meter messages
// and hands the fields to a dispatcher.
package processor

import (
	"context"
	"sync/atomic"

	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog"
)

type State int32

const (
	StateAwaitingMessage State = iota
	StateDecoding
	StateDispatching
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateAwaitingMessage:
		return "awaiting_message"
	case StateDecoding:
		return "decoding"
	case StateDispatching:
		return "dispatching"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Source delivers messages in arrival order. measurequeue.Queue implements it.
type Source interface {
	Get(ctx context.Context) (types.Message, error)
}

// Decoder turns a message into fields. autodecoder.AutoDecoder implements it.
type Decoder interface {
	Decode(msg types.Message) types.Fields
}

// DispatchFunc receives every non-empty decoded reading. It must not keep
// the fields after returning unless it copies them.
type DispatchFunc func(fields types.Fields)

type Option func(*Processor)

type Processor struct {
	source   Source
	decoder  Decoder
	dispatch DispatchFunc

	scaleFactor    float64
	scalableFields map[string]bool

	state  atomic.Int32
	logger zerolog.Logger
}

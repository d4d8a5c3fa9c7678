package processor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	"github.com/NotCoffee418/amshan_reader/pkg/obis"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

// WithScaleFactor multiplies current, power and energy fields by factor, for
// meters installed behind current transformers.
func WithScaleFactor(factor float64) Option {
	return func(p *Processor) {
		p.scaleFactor = factor
	}
}

// WithTable selects the table that decides which fields the scale factor
// applies to. Defaults to the built in table.
func WithTable(table obis.Table) Option {
	return func(p *Processor) {
		p.scalableFields = scalableFields(table)
	}
}

func New(source Source, decoder Decoder, dispatch DispatchFunc, opts ...Option) *Processor {
	p := &Processor{
		source:         source,
		decoder:        decoder,
		dispatch:       dispatch,
		scaleFactor:    1,
		scalableFields: scalableFields(obis.DefaultTable()),
		logger:         log.With().Str("component", "processor").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func scalableFields(table obis.Table) map[string]bool {
	fields := make(map[string]bool)
	for _, def := range table {
		if def.Scalable() {
			fields[def.Field] = true
		}
	}
	return fields
}

func (p *Processor) State() State {
	return State(p.state.Load())
}

func (p *Processor) setState(s State) {
	p.state.Store(int32(s))
}

// Run processes messages until it receives the stop message or ctx is done,
// both of which return nil. A message that fails to decode is logged and
// skipped. Only a failing source ends Run with an error.
func (p *Processor) Run(ctx context.Context) error {
	defer p.setState(StateStopped)

	for {
		p.setState(StateAwaitingMessage)
		msg, err := p.source.Get(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Debug().Msg("receive loop cancelled")
				return nil
			}
			return fmt.Errorf("receive message: %w", err)
		}
		if msg == nil {
			continue
		}
		if types.IsStop(msg) {
			p.logger.Debug().Msg("stop message received")
			return nil
		}
		p.process(msg)
	}
}

func (p *Processor) process(msg types.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic", r).
				Str("type", msg.MessageType().String()).
				Msg("failed processing meter message")
		}
	}()

	p.setState(StateDecoding)
	start := time.Now()
	fields := p.decoder.Decode(msg)
	metrics.RecordDecode(msg.MessageType().String(), len(fields), time.Since(start))

	if len(fields) == 0 {
		p.logger.Warn().
			Str("type", msg.MessageType().String()).
			Int("length", len(msg.Bytes())).
			Msg("could not decode meter message")
		return
	}

	p.scale(fields)
	p.setState(StateDispatching)
	p.dispatch(fields)
}

func (p *Processor) scale(fields types.Fields) {
	if p.scaleFactor == 1 || p.scaleFactor == 0 {
		return
	}
	for key, value := range fields {
		if !p.scalableFields[key] {
			continue
		}
		switch v := value.(type) {
		case int64:
			fields[key] = int64(math.Round(float64(v) * p.scaleFactor))
		case float64:
			fields[key] = v * p.scaleFactor
		}
	}
}

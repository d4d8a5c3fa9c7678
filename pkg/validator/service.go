package validator

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/autodecoder"
	"github.com/NotCoffee418/amshan_reader/pkg/config"
	"github.com/NotCoffee418/amshan_reader/pkg/measurequeue"
	"github.com/NotCoffee418/amshan_reader/pkg/mqttsource"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

const readBufferSize = 1024

func DefaultConfig() Config {
	return Config{
		MaxFrameSearchCount: 6,
		MaxFrameWaitTime:    12 * time.Second,
	}
}

func New(cfg Config) *Validator {
	defaults := DefaultConfig()
	if cfg.MaxFrameSearchCount <= 0 {
		cfg.MaxFrameSearchCount = defaults.MaxFrameSearchCount
	}
	if cfg.MaxFrameWaitTime <= 0 {
		cfg.MaxFrameWaitTime = defaults.MaxFrameWaitTime
	}
	return &Validator{
		cfg:         cfg,
		decoder:     autodecoder.New(nil),
		checkHost:   checkHost,
		openDevice:  config.ConnectionConfig.ConnectionFactory,
		connectMQTT: connectMQTT,
		logger:      log.With().Str("component", "validator").Logger(),
	}
}

func connectMQTT(ctx context.Context, options mqttsource.Options, sink mqttsource.Sink) (io.Closer, error) {
	return mqttsource.Connect(ctx, options, sink)
}

// Validate checks conn and connects to the meter. It returns the meter info
// from the first message that identifies the meter, or an *Error.
func (v *Validator) Validate(ctx context.Context, conn config.ConnectionConfig) (*types.MeterInfo, error) {
	if err := conn.Validate(); err != nil {
		return nil, schemaError(err)
	}

	switch conn.InferType() {
	case config.ConnectionNetwork:
		if err := v.checkHost(conn.Network.Host, v.cfg.PingHost); err != nil {
			return nil, &Error{Key: "tcp_host", Code: CodeHostCheck, Err: err}
		}
		return v.validateDevice(ctx, conn)
	case config.ConnectionSerial:
		return v.validateDevice(ctx, conn)
	}
	return v.validateMQTT(ctx, conn)
}

func schemaError(err error) error {
	var fieldErr *config.FieldError
	if !errors.As(err, &fieldErr) {
		return &Error{Key: KeyBase, Code: invalidFieldPrefix + "config", Err: err}
	}
	if errors.Is(fieldErr.Err, mqttsource.ErrInvalidTopic) || errors.Is(fieldErr.Err, mqttsource.ErrNoTopics) {
		return &Error{Key: "mqtt_topics", Code: CodeInvalidSubscribeTopic, Err: err}
	}
	return &Error{Key: fieldErr.Field, Code: invalidFieldPrefix + fieldErr.Field, Err: err}
}

func (v *Validator) validateDevice(ctx context.Context, conn config.ConnectionConfig) (*types.MeterInfo, error) {
	factory, err := v.openDevice(conn)
	if err != nil {
		return nil, &Error{Key: KeyBase, Code: CodeCannotConnect, Err: err}
	}

	stream, err := factory.Open(ctx)
	if err != nil {
		return nil, connectError(factory.Transport(), err)
	}
	defer stream.Close()
	v.logger.Debug().Str("transport", factory.Transport()).Msg("connected, waiting for meter messages")

	queue := measurequeue.New(0, measurequeue.DropOldest)
	go read(ctx, stream, queue)

	return v.meterInfo(ctx, queue)
}

func connectError(transport string, err error) error {
	switch {
	case errors.Is(err, port_reader.ErrConnectTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Error{Key: KeyBase, Code: CodeTimeoutConnect, Err: err}
	case errors.Is(err, port_reader.ErrDeviceNotFound):
		return &Error{Key: KeyBase, Code: CodeSerialNotFound, Err: err}
	case errors.Is(err, port_reader.ErrHostNotFound):
		return &Error{Key: "tcp_host", Code: CodeHostCheck, Err: err}
	case transport == port_reader.TransportSerial:
		return &Error{Key: KeyBase, Code: CodeSerialGeneral, Err: err}
	}
	return &Error{Key: KeyBase, Code: CodeCannotConnect, Err: err}
}

// read copies messages from r into queue until r fails.
func read(ctx context.Context, r io.Reader, queue *measurequeue.Queue) {
	stream := port_reader.NewMessageStream()
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		for _, msg := range stream.Read(buf[:n]) {
			if queue.Put(ctx, msg) != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (v *Validator) validateMQTT(ctx context.Context, conn config.ConnectionConfig) (*types.MeterInfo, error) {
	queue := measurequeue.New(0, measurequeue.DropOldest)
	subscriber, err := v.connectMQTT(ctx, conn.MQTTOptions(), queue)
	if err != nil {
		if errors.Is(err, mqttsource.ErrInvalidTopic) || errors.Is(err, mqttsource.ErrNoTopics) {
			return nil, &Error{Key: "mqtt_topics", Code: CodeInvalidSubscribeTopic, Err: err}
		}
		return nil, &Error{Key: KeyBase, Code: CodeMQTTNotAvailable, Err: err}
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			v.logger.Debug().Err(err).Msg("failed to close mqtt subscription")
		}
	}()

	return v.meterInfo(ctx, queue)
}

// meterInfo inspects up to MaxFrameSearchCount messages, waiting at most
// MaxFrameWaitTime for each.
func (v *Validator) meterInfo(ctx context.Context, queue *measurequeue.Queue) (*types.MeterInfo, error) {
	for i := 0; i < v.cfg.MaxFrameSearchCount; i++ {
		msg, err := v.nextMessage(ctx, queue)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &Error{Key: KeyBase, Code: CodeTimeoutReadMessages, Err: ctx.Err()}
			}
			v.logger.Debug().Dur("wait", v.cfg.MaxFrameWaitTime).Msg("timeout waiting for meter message")
			continue
		}

		fields := v.decoder.Decode(msg)
		if len(fields) == 0 {
			continue
		}
		if info, ok := types.MeterInfoFromFields(fields); ok {
			return info, nil
		}
		v.logger.Debug().Msg("decoded message is missing meter identification")
	}
	return nil, &Error{Key: KeyBase, Code: CodeTimeoutReadMessages}
}

func (v *Validator) nextMessage(ctx context.Context, queue *measurequeue.Queue) (types.Message, error) {
	waitCtx, cancel := context.WithTimeout(ctx, v.cfg.MaxFrameWaitTime)
	defer cancel()
	return queue.Get(waitCtx)
}

// Package validator checks a connection configuration by connecting to the
// meter and waiting for a message that identifies it.
package validator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/autodecoder"
	"github.com/NotCoffee418/amshan_reader/pkg/config"
	"github.com/NotCoffee418/amshan_reader/pkg/mqttsource"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
	"github.com/rs/zerolog"
)

// KeyBase marks an error that is not tied to a single field.
const KeyBase = "base"

// Error codes.
const (
	CodeTimeoutConnect        = "timeout_connect"
	CodeTimeoutReadMessages   = "timeout_read_messages"
	CodeHostCheck             = "host_check"
	CodeSerialNotFound        = "serial_exception_errno_2"
	CodeSerialGeneral         = "serial_exception_general"
	CodeCannotConnect         = "cannot_connect"
	CodeMQTTNotAvailable      = "mqtt_not_available"
	CodeInvalidSubscribeTopic = "invalid_subscribe_topic"
	invalidFieldPrefix        = "invalid_"
)

type Config struct {
	// Number of messages to inspect before giving up.
	MaxFrameSearchCount int
	// Longest wait for each message.
	MaxFrameWaitTime time.Duration
	// Ping the TCP host after resolving it.
	PingHost bool
}

// Error is a failed validation. Key is the field the error belongs to, or
// KeyBase.
type Error struct {
	Key  string
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Key, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Key, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Validator struct {
	cfg     Config
	decoder *autodecoder.AutoDecoder

	checkHost   func(host string, ping bool) error
	openDevice  func(conn config.ConnectionConfig) (port_reader.ConnectionFactory, error)
	connectMQTT func(ctx context.Context, options mqttsource.Options, sink mqttsource.Sink) (io.Closer, error)

	logger zerolog.Logger
}

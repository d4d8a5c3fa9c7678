package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/NotCoffee418/amshan_reader/pkg/measurequeue"
	"github.com/NotCoffee418/amshan_reader/pkg/mqttsource"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
	"github.com/rs/zerolog"
)

const (
	ipv4Pattern     = `(?:(?:[0-9]|[1-9][0-9]|1[0-9]{2}|2[0-4][0-9]|25[0-5])\.){3}(?:[0-9]|[1-9][0-9]|1[0-9]{2}|2[0-4][0-9]|25[0-5])`
	ipv6Pattern     = `(?i:(?:[A-F0-9]{1,4}:){7}[A-F0-9]{1,4})`
	hostnamePattern = `(?:(?:[a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9])\.)*(?:[A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9\-]*[A-Za-z0-9])`
)

var hostPattern = regexp.MustCompile(`^(?:` + ipv4Pattern + `|` + hostnamePattern + `|` + ipv6Pattern + `)$`)

// ValidHost reports whether host is an IPv4 address, a full IPv6 address or a
// hostname.
func ValidHost(host string) bool {
	return hostPattern.MatchString(host)
}

// Validate checks the settings of the selected connection type and the
// general settings. Every failing field is reported as a *FieldError.
func (c *InterpreterAPIConfig) Validate() error {
	var errs []error
	fail := func(field string, err error) {
		errs = append(errs, &FieldError{Field: field, Err: err})
	}

	errs = append(errs, c.Connection.Validate())

	if c.ListenPort < 1 || c.ListenPort > 65535 {
		fail("listen_port", fmt.Errorf("port %d out of range", c.ListenPort))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		fail("log_level", err)
	}
	if c.ScaleFactor <= 0 {
		fail("scale_factor", fmt.Errorf("scale factor must be positive, got %v", c.ScaleFactor))
	}
	if c.Queue.Capacity < 0 {
		fail("queue_capacity", fmt.Errorf("capacity %d is negative", c.Queue.Capacity))
	}
	if _, err := measurequeue.ParseOverflowPolicy(c.Queue.Overflow); err != nil {
		fail("queue_overflow", err)
	}
	if c.Validation.MaxFrameSearchCount < 1 {
		fail("max_frame_search_count", errors.New("must be at least 1"))
	}
	if c.Validation.MaxFrameWaitSeconds < 1 {
		fail("max_frame_wait_seconds", errors.New("must be at least 1"))
	}

	return errors.Join(errs...)
}

// Validate checks the settings used by the selected connection type.
func (c ConnectionConfig) Validate() error {
	var errs []error
	fail := func(field string, err error) {
		errs = append(errs, &FieldError{Field: field, Err: err})
	}

	switch c.InferType() {
	case ConnectionSerial:
		s := c.Serial
		if s.Port == "" {
			fail("serial_port", errors.New("no serial port"))
		}
		if s.Baudrate == 0 {
			fail("serial_baudrate", errors.New("baudrate must be positive"))
		}
		switch s.Parity {
		case port_reader.ParityNone, port_reader.ParityEven, port_reader.ParityOdd:
		default:
			fail("serial_parity", fmt.Errorf("unsupported parity %q", s.Parity))
		}
		if s.ByteSize < 5 || s.ByteSize > 8 {
			fail("serial_bytesize", fmt.Errorf("byte size %d out of range", s.ByteSize))
		}
		if s.StopBits != 1 && s.StopBits != 2 {
			fail("serial_stopbits", fmt.Errorf("unsupported stop bits %d", s.StopBits))
		}
	case ConnectionNetwork:
		n := c.Network
		if !ValidHost(n.Host) {
			fail("tcp_host", fmt.Errorf("%q is not a hostname or IP address", n.Host))
		}
		if n.Port < 0 || n.Port > 65535 {
			fail("tcp_port", fmt.Errorf("port %d out of range", n.Port))
		}
		if n.ConnectTimeoutSeconds < 1 {
			fail("tcp_connect_timeout", errors.New("must be at least 1 second"))
		}
	case ConnectionMQTT:
		if c.MQTT.Broker == "" {
			fail("mqtt_broker", errors.New("no broker"))
		}
		if _, err := mqttsource.ValidateTopics(c.MQTT.Topics); err != nil {
			fail("subscribe_topic", err)
		}
	default:
		fail("type", fmt.Errorf("unknown connection type %q", c.Type))
	}

	return errors.Join(errs...)
}

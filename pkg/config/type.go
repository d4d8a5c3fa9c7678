package config

import (
	"errors"
	"fmt"
)

// Connection types.
const (
	ConnectionSerial  = "serial"
	ConnectionNetwork = "network_tcpip"
	ConnectionMQTT    = "hass_mqtt"
)

var ErrInvalidField = errors.New("invalid configuration")

// FieldError reports a single configuration field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error {
	return []error{ErrInvalidField, e.Err}
}

type MeterCollectorConfig struct {
	InterpreterAPIHost string `toml:"interpreter_api_host"`
	TLSEnabled         bool   `toml:"tls_enabled"`
	LogLevel           string `toml:"log_level"`
}

type InterpreterAPIConfig struct {
	ListenAddress string  `toml:"listen_address"`
	ListenPort    int     `toml:"listen_port"`
	LogLevel      string  `toml:"log_level"`
	ScaleFactor   float64 `toml:"scale_factor"`

	Connection ConnectionConfig `toml:"connection"`
	Queue      QueueConfig      `toml:"queue"`
	Validation ValidationConfig `toml:"validation"`

	// Flat serial settings written by earlier releases. Only read.
	SerialDevice string `toml:"serial_device,omitempty"`
	Baudrate     uint   `toml:"baudrate,omitempty"`
}

type ConnectionConfig struct {
	// One of serial, network_tcpip or hass_mqtt. Inferred when empty.
	Type    string        `toml:"type"`
	Serial  SerialConfig  `toml:"serial"`
	Network NetworkConfig `toml:"network"`
	MQTT    MQTTConfig    `toml:"mqtt"`
}

type SerialConfig struct {
	Port     string `toml:"port"`
	Baudrate uint   `toml:"baudrate"`
	Parity   string `toml:"parity"`
	ByteSize uint   `toml:"bytesize"`
	StopBits uint   `toml:"stopbits"`
	RTSCTS   bool   `toml:"rtscts"`
}

type NetworkConfig struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
}

type MQTTConfig struct {
	Broker   string `toml:"broker"`
	ClientID string `toml:"client_id"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	// Comma separated list of topics relaying raw meter payloads.
	Topics string `toml:"topics"`
}

type QueueConfig struct {
	// Zero means unbounded.
	Capacity int    `toml:"capacity"`
	Overflow string `toml:"overflow"`
}

type ValidationConfig struct {
	MaxFrameSearchCount int `toml:"max_frame_search_count"`
	MaxFrameWaitSeconds int `toml:"max_frame_wait_seconds"`
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/amshan_reader/pkg/measurequeue"
	"github.com/NotCoffee418/amshan_reader/pkg/mqttsource"
	"github.com/NotCoffee418/amshan_reader/pkg/pathing"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
)

var (
	ActiveInterpreterAPIConfig *InterpreterAPIConfig
	ActiveMeterCollectorConfig *MeterCollectorConfig
)

func DefaultInterpreterAPIConfig() *InterpreterAPIConfig {
	cfg := &InterpreterAPIConfig{
		Connection: ConnectionConfig{
			Type: ConnectionSerial,
			Serial: SerialConfig{
				Port: "/dev/ttyUSB0",
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func DefaultMeterCollectorConfig() *MeterCollectorConfig {
	return &MeterCollectorConfig{
		InterpreterAPIHost: "localhost:9039",
		TLSEnabled:         false,
		LogLevel:           "info",
	}
}

func LoadInterpreterAPIConfig() error {
	cfg, err := LoadInterpreterAPIConfigFile(filepath.Join(pathing.GetConfigDir(), "interpreter_api.toml"))
	if err != nil {
		return err
	}
	ActiveInterpreterAPIConfig = cfg
	return nil
}

func LoadMeterCollectorConfig() error {
	cfg, err := LoadMeterCollectorConfigFile(filepath.Join(pathing.GetConfigDir(), "meter_collector.toml"))
	if err != nil {
		return err
	}
	ActiveMeterCollectorConfig = cfg
	return nil
}

// LoadInterpreterAPIConfigFile reads and validates the config at path. A
// missing file is created with the defaults.
func LoadInterpreterAPIConfigFile(path string) (*InterpreterAPIConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultInterpreterAPIConfig()
		if err := writeConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var cfg InterpreterAPIConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadMeterCollectorConfigFile reads the config at path. A missing file is
// created with the defaults.
func LoadMeterCollectorConfigFile(path string) (*MeterCollectorConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultMeterCollectorConfig()
		if err := writeConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var cfg MeterCollectorConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.InterpreterAPIHost == "" {
		cfg.InterpreterAPIHost = DefaultMeterCollectorConfig().InterpreterAPIHost
	}
	return &cfg, nil
}

func writeConfig(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (c *InterpreterAPIConfig) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = "0.0.0.0"
	}
	if c.ListenPort == 0 {
		c.ListenPort = 9039
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ScaleFactor == 0 {
		c.ScaleFactor = 1
	}

	serial := &c.Connection.Serial
	if serial.Port == "" {
		serial.Port = c.SerialDevice
	}
	if serial.Baudrate == 0 {
		serial.Baudrate = c.Baudrate
	}
	if serial.Baudrate == 0 {
		serial.Baudrate = 2400
	}
	if serial.Parity == "" {
		serial.Parity = port_reader.ParityNone
	}
	if serial.ByteSize == 0 {
		serial.ByteSize = 8
	}
	if serial.StopBits == 0 {
		serial.StopBits = 1
	}
	if c.Connection.Network.ConnectTimeoutSeconds == 0 {
		c.Connection.Network.ConnectTimeoutSeconds = 10
	}
	if c.Connection.MQTT.ClientID == "" {
		c.Connection.MQTT.ClientID = "amshan_reader"
	}

	if c.Queue.Overflow == "" {
		c.Queue.Overflow = string(measurequeue.DropOldest)
	}
	if c.Validation.MaxFrameSearchCount == 0 {
		c.Validation.MaxFrameSearchCount = 6
	}
	if c.Validation.MaxFrameWaitSeconds == 0 {
		c.Validation.MaxFrameWaitSeconds = 12
	}

	c.Connection.Type = c.Connection.InferType()
}

// InferType returns the configured connection type. Configs without a type
// are treated as MQTT when topics are set, as network when a host is set and
// as serial otherwise.
func (c ConnectionConfig) InferType() string {
	switch {
	case c.Type != "":
		return c.Type
	case c.MQTT.Topics != "":
		return ConnectionMQTT
	case c.Network.Host != "":
		return ConnectionNetwork
	}
	return ConnectionSerial
}

func (c ConnectionConfig) SerialOptions() port_reader.SerialOptions {
	return port_reader.SerialOptions{
		Port:     c.Serial.Port,
		Baudrate: c.Serial.Baudrate,
		Parity:   c.Serial.Parity,
		ByteSize: c.Serial.ByteSize,
		StopBits: c.Serial.StopBits,
		RTSCTS:   c.Serial.RTSCTS,
	}
}

func (c ConnectionConfig) TCPOptions() port_reader.TCPOptions {
	return port_reader.TCPOptions{
		Host:    c.Network.Host,
		Port:    c.Network.Port,
		Timeout: time.Duration(c.Network.ConnectTimeoutSeconds) * time.Second,
	}
}

func (c ConnectionConfig) MQTTOptions() mqttsource.Options {
	return mqttsource.Options{
		Broker:   c.MQTT.Broker,
		ClientID: c.MQTT.ClientID,
		Username: c.MQTT.Username,
		Password: c.MQTT.Password,
		Topics:   mqttsource.ParseTopics(c.MQTT.Topics),
	}
}

// ConnectionFactory returns the serial or TCP factory for the configured
// type. MQTT connections have no factory.
func (c ConnectionConfig) ConnectionFactory() (port_reader.ConnectionFactory, error) {
	switch c.InferType() {
	case ConnectionSerial:
		return port_reader.NewSerialConnectionFactory(c.SerialOptions()), nil
	case ConnectionNetwork:
		return port_reader.NewTCPConnectionFactory(c.TCPOptions()), nil
	}
	return nil, fmt.Errorf("connection type %q has no connection factory", c.InferType())
}

func (c QueueConfig) NewQueue() (*measurequeue.Queue, error) {
	policy, err := measurequeue.ParseOverflowPolicy(c.Overflow)
	if err != nil {
		return nil, err
	}
	return measurequeue.New(c.Capacity, policy), nil
}

func (c ValidationConfig) MaxFrameWaitTime() time.Duration {
	return time.Duration(c.MaxFrameWaitSeconds) * time.Second
}

package validator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/NotCoffee418/amshan_reader/internal/testutil"
	"github.com/NotCoffee418/amshan_reader/pkg/config"
	"github.com/NotCoffee418/amshan_reader/pkg/dlms"
	"github.com/NotCoffee418/amshan_reader/pkg/mqttsource"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/stretchr/testify/require"
)

func identifyingFrame() []byte {
	return testutil.Frame(identifyingNotification())
}

func identifyingNotification() []byte {
	body := testutil.Array(
		testutil.Structure(testutil.Obis(1, 1, 0, 2, 129, 255), testutil.VisibleString("AIDON_V0001")),
		testutil.Structure(testutil.Obis(0, 0, 96, 1, 0, 255), testutil.VisibleString("7359992890941742")),
		testutil.Structure(testutil.Obis(0, 0, 96, 1, 7, 255), testutil.VisibleString("6525")),
		testutil.Structure(testutil.Obis(1, 0, 1, 7, 0, 255), testutil.DoubleLongUnsigned(1500), testutil.ScalerUnit(0, dlms.UnitWatt)),
	)
	return testutil.Notification(body, time.Time{})
}

func powerOnlyFrame() []byte {
	body := testutil.Array(
		testutil.Structure(testutil.Obis(1, 0, 1, 7, 0, 255), testutil.DoubleLongUnsigned(1500), testutil.ScalerUnit(0, dlms.UnitWatt)),
	)
	return testutil.Frame(testutil.Notification(body, time.Time{}))
}

type pipeFactory struct {
	transport string
	data      []byte
	err       error
}

func (f pipeFactory) Transport() string { return f.transport }

func (f pipeFactory) Open(context.Context) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, w := io.Pipe()
	go func() {
		w.Write(f.data)
	}()
	return r, nil
}

type nopCloser struct{ closed *bool }

func (c nopCloser) Close() error {
	*c.closed = true
	return nil
}

func serialConn() config.ConnectionConfig {
	return config.ConnectionConfig{
		Type:   config.ConnectionSerial,
		Serial: config.SerialConfig{Port: "/dev/ttyUSB0", Baudrate: 2400, Parity: "N", ByteSize: 8, StopBits: 1},
	}
}

func testValidator(factory port_reader.ConnectionFactory) *Validator {
	v := New(Config{MaxFrameSearchCount: 3, MaxFrameWaitTime: 50 * time.Millisecond})
	v.openDevice = func(config.ConnectionConfig) (port_reader.ConnectionFactory, error) {
		return factory, nil
	}
	return v
}

func requireCode(t *testing.T, err error, key, code string) {
	t.Helper()
	var vErr *Error
	require.True(t, errors.As(err, &vErr), "%v", err)
	require.Equal(t, key, vErr.Key)
	require.Equal(t, code, vErr.Code)
}

func TestValidateDeviceReturnsMeterInfo(t *testing.T) {
	data := append(powerOnlyFrame(), identifyingFrame()...)
	v := testValidator(pipeFactory{transport: port_reader.TransportSerial, data: data})

	info, err := v.Validate(context.Background(), serialConn())
	require.NoError(t, err)
	require.Equal(t, "Aidon", info.Manufacturer)
	require.Equal(t, "7359992890941742", info.MeterID)
	require.Equal(t, "6525", info.Type)
	require.Equal(t, "aidon-6525-7359992890941742", info.UniqueID())
}

func TestValidateDeviceTimesOutWithoutIdentification(t *testing.T) {
	v := testValidator(pipeFactory{transport: port_reader.TransportSerial, data: powerOnlyFrame()})

	_, err := v.Validate(context.Background(), serialConn())
	requireCode(t, err, KeyBase, CodeTimeoutReadMessages)
}

func TestValidateDeviceConnectErrors(t *testing.T) {
	cases := map[string]struct {
		factory pipeFactory
		key     string
		code    string
	}{
		"missing device": {pipeFactory{transport: port_reader.TransportSerial, err: fmt.Errorf("%w: /dev/ttyUSB0", port_reader.ErrDeviceNotFound)}, KeyBase, CodeSerialNotFound},
		"serial failure": {pipeFactory{transport: port_reader.TransportSerial, err: fmt.Errorf("%w: busy", port_reader.ErrConnectionFailed)}, KeyBase, CodeSerialGeneral},
		"timeout":        {pipeFactory{transport: port_reader.TransportTCP, err: fmt.Errorf("%w: 10.0.0.2:3001", port_reader.ErrConnectTimeout)}, KeyBase, CodeTimeoutConnect},
		"unknown host":   {pipeFactory{transport: port_reader.TransportTCP, err: fmt.Errorf("%w: meter:3001", port_reader.ErrHostNotFound)}, "tcp_host", CodeHostCheck},
		"refused":        {pipeFactory{transport: port_reader.TransportTCP, err: fmt.Errorf("%w: refused", port_reader.ErrConnectionFailed)}, KeyBase, CodeCannotConnect},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := testValidator(tc.factory).Validate(context.Background(), serialConn())
			requireCode(t, err, tc.key, tc.code)
		})
	}
}

func TestValidateSchemaErrors(t *testing.T) {
	conn := serialConn()
	conn.Serial.Parity = "X"
	_, err := New(DefaultConfig()).Validate(context.Background(), conn)
	requireCode(t, err, "serial_parity", "invalid_serial_parity")

	mqttConn := config.ConnectionConfig{Type: config.ConnectionMQTT, MQTT: config.MQTTConfig{Broker: "tcp://broker:1883", Topics: "han/#/x"}}
	_, err = New(DefaultConfig()).Validate(context.Background(), mqttConn)
	requireCode(t, err, "mqtt_topics", CodeInvalidSubscribeTopic)
}

func TestValidateHostCheck(t *testing.T) {
	v := testValidator(pipeFactory{transport: port_reader.TransportTCP, data: identifyingFrame()})
	v.checkHost = func(string, bool) error { return errors.New("no such host") }

	conn := config.ConnectionConfig{Type: config.ConnectionNetwork, Network: config.NetworkConfig{Host: "meter.local", Port: 3001, ConnectTimeoutSeconds: 1}}
	_, err := v.Validate(context.Background(), conn)
	requireCode(t, err, "tcp_host", CodeHostCheck)

	v.checkHost = func(string, bool) error { return nil }
	info, err := v.Validate(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, "7359992890941742", info.MeterID)
}

func TestValidateMQTT(t *testing.T) {
	conn := config.ConnectionConfig{Type: config.ConnectionMQTT, MQTT: config.MQTTConfig{Broker: "tcp://broker:1883", Topics: "han/raw"}}

	v := New(Config{MaxFrameSearchCount: 2, MaxFrameWaitTime: 50 * time.Millisecond})
	v.connectMQTT = func(context.Context, mqttsource.Options, mqttsource.Sink) (io.Closer, error) {
		return nil, errors.New("connection refused")
	}
	_, err := v.Validate(context.Background(), conn)
	requireCode(t, err, KeyBase, CodeMQTTNotAvailable)

	closed := false
	v.connectMQTT = func(ctx context.Context, options mqttsource.Options, sink mqttsource.Sink) (io.Closer, error) {
		require.Equal(t, []string{"han/raw"}, options.Topics)
		require.NoError(t, sink.Put(ctx, types.NewDlmsMessage(identifyingNotification())))
		return nopCloser{closed: &closed}, nil
	}
	info, err := v.Validate(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, "Aidon", info.Manufacturer)
	require.True(t, closed)
}

package port_reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

const defaultTCPTimeout = 10 * time.Second

func NewSerialConnectionFactory(options SerialOptions) *SerialConnectionFactory {
	if options.Baudrate == 0 {
		options.Baudrate = 2400
	}
	if options.ByteSize == 0 {
		options.ByteSize = 8
	}
	if options.StopBits == 0 {
		options.StopBits = 1
	}
	if options.Parity == "" {
		options.Parity = ParityNone
	}
	return &SerialConnectionFactory{options: options}
}

func (f *SerialConnectionFactory) Transport() string {
	return TransportSerial
}

func (f *SerialConnectionFactory) Options() SerialOptions {
	return f.options
}

// Open the serial port. A missing device is reported as ErrDeviceNotFound.
func (f *SerialConnectionFactory) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parity, err := parityMode(f.options.Parity)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(serial.OpenOptions{
		PortName:          f.options.Port,
		BaudRate:          f.options.Baudrate,
		DataBits:          f.options.ByteSize,
		StopBits:          f.options.StopBits,
		ParityMode:        parity,
		RTSCTSFlowControl: f.options.RTSCTS,
		MinimumReadSize:   1,
	})
	if err != nil {
		return nil, classifySerialError(f.options.Port, err)
	}
	return port, nil
}

func parityMode(parity string) (serial.ParityMode, error) {
	switch parity {
	case ParityNone:
		return serial.PARITY_NONE, nil
	case ParityEven:
		return serial.PARITY_EVEN, nil
	case ParityOdd:
		return serial.PARITY_ODD, nil
	}
	return serial.PARITY_NONE, fmt.Errorf("unsupported parity %q", parity)
}

func classifySerialError(port string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrDeviceNotFound, port, err)
	}
	return fmt.Errorf("%w: open serial port %s: %w", ErrConnectionFailed, port, err)
}

func NewTCPConnectionFactory(options TCPOptions) *TCPConnectionFactory {
	if options.Timeout <= 0 {
		options.Timeout = defaultTCPTimeout
	}
	return &TCPConnectionFactory{options: options}
}

func (f *TCPConnectionFactory) Transport() string {
	return TransportTCP
}

func (f *TCPConnectionFactory) Address() string {
	return net.JoinHostPort(f.options.Host, strconv.Itoa(f.options.Port))
}

// Open dials the meter gateway within the configured timeout.
func (f *TCPConnectionFactory) Open(ctx context.Context) (io.ReadCloser, error) {
	dialer := net.Dialer{Timeout: f.options.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", f.Address())
	if err != nil {
		return nil, classifyDialError(f.Address(), err)
	}
	return conn, nil
}

func classifyDialError(address string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return fmt.Errorf("%w: %s: %w", ErrHostNotFound, address, err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrConnectTimeout, address, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %w", ErrConnectTimeout, address, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, address, err)
}

package port_reader

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/dlde"
	"github.com/NotCoffee418/amshan_reader/pkg/hdlc"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog"
)

var (
	ErrConnectTimeout   = errors.New("timed out connecting to meter")
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrHostNotFound     = errors.New("meter host not found")
	ErrConnectionFailed = errors.New("failed to connect to meter")
)

const (
	TransportSerial = "serial"
	TransportTCP    = "network_tcpip"
)

// Parity values accepted by SerialOptions.
const (
	ParityNone = "N"
	ParityEven = "E"
	ParityOdd  = "O"
)

type SerialOptions struct {
	Port     string
	Baudrate uint
	Parity   string
	ByteSize uint
	StopBits uint
	RTSCTS   bool
}

type TCPOptions struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// ConnectionFactory opens a fresh byte stream to the meter.
type ConnectionFactory interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Transport() string
}

type SerialConnectionFactory struct {
	options SerialOptions
}

type TCPConnectionFactory struct {
	options TCPOptions
}

// Sink receives decoded messages. measurequeue.Queue implements it.
type Sink interface {
	Put(ctx context.Context, msg types.Message) error
}

type streamMode int

const (
	modeDetect streamMode = iota
	modeHdlc
	modeP1
)

// MessageStream turns raw chunks from a serial or TCP connection into meter
// messages. It locks onto HDLC or P1 framing after the first valid message.
type MessageStream struct {
	frames    *hdlc.FrameReader
	segments  hdlc.SegmentAssembler
	telegrams *dlde.TelegramReader
	mode      streamMode
}

type ConnectionManager struct {
	factory ConnectionFactory
	sink    Sink

	baseRetryDelay time.Duration
	maxRetryDelay  time.Duration
	readBufferSize int

	mu     sync.Mutex
	conn   io.ReadCloser
	cancel context.CancelFunc
	closed bool

	logger zerolog.Logger
}

type ManagerOption func(*ConnectionManager)

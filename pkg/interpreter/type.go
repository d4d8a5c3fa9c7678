package interpreter

import (
	"sync"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Path the interpreter API serves readings on.
	WebSocketPath = "/ws"

	baseRetryDelay   = 2 * time.Second
	maxRetryDelay    = 60 * time.Second
	handshakeTimeout = 10 * time.Second
	pingInterval     = 30 * time.Second
	writeTimeout     = 5 * time.Second
)

// ReadingHandler is called for every reading received from the interpreter
// API.
type ReadingHandler func(types.Fields)

// Listener keeps a websocket connection to the interpreter API open and
// hands every reading to its handler.
type Listener struct {
	url         string
	handler     ReadingHandler
	readTimeout time.Duration
	retryDelay  func(int) time.Duration
	logger      zerolog.Logger
}

// Hub tracks websocket clients and broadcasts readings to them. The last
// reading is kept so new clients get it right away.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*sync.Mutex
	latest   []byte
	logger   zerolog.Logger
}

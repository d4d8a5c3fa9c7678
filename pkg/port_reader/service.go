package port_reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/measurequeue"
	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseRetryDelay = 2 * time.Second
	defaultMaxRetryDelay  = 60 * time.Second
	defaultReadBufferSize = 1024
)

// WithRetryDelay sets the first reconnect delay and the cap of the
// exponential backoff.
func WithRetryDelay(base, limit time.Duration) ManagerOption {
	return func(m *ConnectionManager) {
		m.baseRetryDelay = base
		m.maxRetryDelay = limit
	}
}

// NewConnectionManager creates a manager that keeps a connection from factory
// open and puts every message read from it into sink.
func NewConnectionManager(factory ConnectionFactory, sink Sink, opts ...ManagerOption) *ConnectionManager {
	m := &ConnectionManager{
		factory:        factory,
		sink:           sink,
		baseRetryDelay: defaultBaseRetryDelay,
		maxRetryDelay:  defaultMaxRetryDelay,
		readBufferSize: defaultReadBufferSize,
		logger:         log.With().Str("component", "connection").Str("transport", factory.Transport()).Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ConnectLoop connects, reads until the connection breaks and reconnects with
// exponential backoff. It returns nil once ctx is done or Close is called.
func (m *ConnectionManager) ConnectLoop(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()
	defer m.cancel()

	stream := NewMessageStream()
	retryCount := 0

	for {
		if retryCount > 0 {
			delay := m.retryDelay(retryCount)
			m.logger.Info().Dur("delay", delay).Int("attempt", retryCount+1).Msg("reconnecting to meter")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
		}

		conn, err := m.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.logger.Warn().Err(err).Msg("connection failed")
			retryCount++
			continue
		}

		stream.Reset()
		received, err := m.pump(ctx, conn, stream)
		m.closeConn()

		if ctx.Err() != nil {
			return nil
		}
		if received {
			retryCount = 0
		}
		retryCount++
		m.logger.Warn().Err(err).Msg("connection lost")
	}
}

// Connect makes a single connection attempt and keeps the connection as the
// current one.
func (m *ConnectionManager) Connect(ctx context.Context) (io.ReadCloser, error) {
	conn, err := m.factory.Open(ctx)
	metrics.RecordConnect(m.factory.Transport(), err == nil)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		conn.Close()
		return nil, fmt.Errorf("%w: manager closed", ErrConnectionFailed)
	}
	m.conn = conn
	m.logger.Info().Msg("connected to meter")
	return conn, nil
}

// Close stops ConnectLoop and closes the current connection.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	m.closed = true
	cancel := m.cancel
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (m *ConnectionManager) closeConn() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// pump reads from conn until it fails, handing each completed message to the
// sink. It reports whether any message was delivered.
func (m *ConnectionManager) pump(ctx context.Context, conn io.ReadCloser, stream *MessageStream) (bool, error) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	received := false
	buf := make([]byte, m.readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, msg := range stream.Read(buf[:n]) {
				received = true
				m.deliver(ctx, msg)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return received, fmt.Errorf("connection closed by meter: %w", err)
			}
			return received, fmt.Errorf("read from meter: %w", err)
		}
	}
}

func (m *ConnectionManager) deliver(ctx context.Context, msg types.Message) {
	if err := m.sink.Put(ctx, msg); err != nil {
		if errors.Is(err, measurequeue.ErrQueueFull) {
			m.logger.Debug().Str("type", msg.MessageType().String()).Msg("queue full, message dropped")
			return
		}
		if ctx.Err() == nil {
			m.logger.Warn().Err(err).Msg("failed to queue meter message")
		}
	}
}

func (m *ConnectionManager) retryDelay(retryCount int) time.Duration {
	delay := m.baseRetryDelay
	for i := 1; i < retryCount && delay < m.maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > m.maxRetryDelay {
		delay = m.maxRetryDelay
	}
	return delay
}

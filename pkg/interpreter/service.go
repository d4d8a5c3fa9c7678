package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Expect a reading at least every few seconds.
const defaultReadTimeout = 30 * time.Second

// NewListener creates a listener for the interpreter API at host. With tls
// the connection uses wss.
func NewListener(host string, tls bool, handler ReadingHandler) *Listener {
	scheme := "ws"
	if tls {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: host, Path: WebSocketPath}
	return &Listener{
		url:         u.String(),
		handler:     handler,
		readTimeout: defaultReadTimeout,
		retryDelay:  retryDelay,
		logger:      log.With().Str("component", "interpreter_listener").Str("url", u.String()).Logger(),
	}
}

// StartListener connects to the interpreter API and calls handler for each
// reading until ctx is done, reconnecting with exponential backoff.
func StartListener(ctx context.Context, host string, tls bool, handler ReadingHandler) {
	NewListener(host, tls, handler).Run(ctx)
}

func (l *Listener) Run(ctx context.Context) {
	retryCount := 0
	for {
		if retryCount > 0 {
			delay := l.retryDelay(retryCount)
			l.logger.Info().Dur("delay", delay).Int("attempt", retryCount+1).Msg("retrying connection")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		l.logger.Info().Msg("connecting")
		dialer := websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		}
		c, _, err := dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn().Err(err).Msg("connection failed")
			retryCount++
			continue
		}

		l.logger.Info().Msg("connected, accepting meter readings")
		received := l.handleConnection(ctx, c)
		c.Close()

		if ctx.Err() != nil {
			return
		}
		if received > 0 {
			retryCount = 0
		}
		retryCount++
		l.logger.Warn().Int("readings", received).Msg("connection lost, will retry")
	}
}

// handleConnection reads readings until the connection breaks or ctx is done
// and returns how many readings were handled.
func (l *Listener) handleConnection(ctx context.Context, c *websocket.Conn) int {
	done := make(chan struct{})
	var received atomic.Int64

	c.SetReadDeadline(time.Now().Add(l.readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(l.readTimeout))
	})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					l.logger.Warn().Err(err).Msg("websocket error")
				} else {
					l.logger.Debug().Err(err).Msg("connection closed")
				}
				return
			}
			c.SetReadDeadline(time.Now().Add(l.readTimeout))

			if messageType != websocket.TextMessage {
				l.logger.Debug().Int("message_type", messageType).Msg("ignoring non text message")
				continue
			}
			fields, err := ParseReading(message)
			if err != nil {
				l.logger.Warn().Err(err).Msg("failed to parse meter reading")
				continue
			}
			received.Add(1)
			l.handler(fields)
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return int(received.Load())
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				l.logger.Warn().Err(err).Msg("failed to send ping")
			}
		case <-ctx.Done():
			err := c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			if err != nil {
				l.logger.Debug().Err(err).Msg("error sending close message")
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return int(received.Load())
		}
	}
}

var errEmptyReading = errors.New("empty reading")

// ParseReading decodes one JSON encoded reading as sent by the interpreter
// API.
func ParseReading(data []byte) (types.Fields, error) {
	var fields types.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errEmptyReading
	}
	return fields, nil
}

func retryDelay(retryCount int) time.Duration {
	delay := baseRetryDelay
	for i := 1; i < retryCount && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

package mqttsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/detector"
	"github.com/NotCoffee418/amshan_reader/pkg/measurequeue"
	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesce     = 250
)

// NewClientOptions builds paho client options. Auto reconnect is enabled and
// subscriptions are restored on reconnect through the on-connect handler set
// by Connect.
func NewClientOptions(o Options) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	return opts
}

// New wraps an existing client. Subscribe must be called to start receiving.
func New(client mqtt.Client, sink Sink, topics []string) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscriber{
		client:  client,
		sink:    sink,
		topics:  topics,
		timeout: defaultConnectTimeout,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log.With().Str("component", "mqtt").Logger(),
	}
}

// Connect creates a client for o, connects it and subscribes to o.Topics.
func Connect(ctx context.Context, o Options, sink Sink) (*Subscriber, error) {
	if len(o.Topics) == 0 {
		return nil, ErrNoTopics
	}
	for _, topic := range o.Topics {
		if err := ValidateTopic(topic); err != nil {
			return nil, err
		}
	}

	var s *Subscriber
	opts := NewClientOptions(o).SetOnConnectHandler(func(mqtt.Client) {
		if s == nil {
			return
		}
		if err := s.Subscribe(); err != nil {
			s.logger.Error().Err(err).Msg("failed to restore subscriptions")
		}
	})
	s = New(mqtt.NewClient(opts), sink, o.Topics)
	if o.ConnectTimeout > 0 {
		s.timeout = o.ConnectTimeout
	}

	token := s.client.Connect()
	err := waitToken(ctx, token, s.timeout)
	metrics.RecordConnect("hass_mqtt", err == nil)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAvailable, o.Broker, err)
	}
	return s, nil
}

// Subscribe subscribes to every topic with QoS 1.
func (s *Subscriber) Subscribe() error {
	var errs []error
	for _, topic := range s.topics {
		token := s.client.Subscribe(topic, SubscribeQoS, s.handle)
		if err := waitToken(s.ctx, token, s.timeout); err != nil {
			errs = append(errs, fmt.Errorf("subscribe %s: %w", topic, err))
			continue
		}
		s.logger.Debug().Str("topic", topic).Msg("subscribed")
	}
	return errors.Join(errs...)
}

// Topics returns the subscribed topics.
func (s *Subscriber) Topics() []string {
	return s.topics
}

// Close unsubscribes all topics and disconnects the client.
func (s *Subscriber) Close() error {
	defer s.cancel()
	if !s.client.IsConnected() {
		return nil
	}

	s.logger.Debug().Int("count", len(s.topics)).Strs("topics", s.topics).Msg("unsubscribing")
	err := waitToken(context.Background(), s.client.Unsubscribe(s.topics...), s.timeout)
	s.client.Disconnect(disconnectQuiesce)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (s *Subscriber) handle(_ mqtt.Client, m mqtt.Message) {
	msg := detector.MeterMessage(m.Payload())
	if msg == nil {
		s.logger.Debug().Str("topic", m.Topic()).Hex("payload", m.Payload()).Msg("ignoring payload without meter message")
		return
	}

	if err := s.sink.Put(s.ctx, msg); err != nil {
		if errors.Is(err, measurequeue.ErrQueueFull) {
			s.logger.Debug().Str("topic", m.Topic()).Msg("queue full, message dropped")
			return
		}
		s.logger.Warn().Err(err).Str("topic", m.Topic()).Msg("failed to queue meter message")
	}
}

func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return context.DeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}

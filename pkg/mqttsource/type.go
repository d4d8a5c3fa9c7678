// Package mqttsource subscribes to MQTT topics that relay raw meter payloads
// and feeds the detected messages into the inbound queue.
package mqttsource

import (
	"context"
	"errors"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/types"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// QoS used for every meter topic subscription.
const SubscribeQoS byte = 1

var (
	ErrInvalidTopic = errors.New("invalid subscribe topic")
	ErrNoTopics     = errors.New("no subscribe topics")
	ErrNotAvailable = errors.New("mqtt broker not available")
)

type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	Topics         []string
	ConnectTimeout time.Duration
}

// Sink receives the detected meter messages. measurequeue.Queue implements it.
type Sink interface {
	Put(ctx context.Context, msg types.Message) error
}

type Subscriber struct {
	client  mqtt.Client
	sink    Sink
	topics  []string
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

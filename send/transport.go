package send

import (
	"context"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/atomic"
)

var (
	ErrTransportIsNotInitialized = errors.New("send transport is not initialized")
)

type Middleware func(next RoundTripper) RoundTripper

type RoundTripper interface {
	Publish(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error
}

type RoundTripperFunc func(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error

func (f RoundTripperFunc) Publish(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error {
	return f(ctx, exchange, routingKey, msg)
}

// Transport sends messages to one destination exchange.
// It stays unusable until a client session attaches a channel to it.
type Transport struct {
	Exchange    string
	RoutingKey  string
	Middlewares []Middleware
	// Confirm waits for a broker ack of every message
	Confirm bool

	roundTripper     *atomic.Value
	rootRoundTripper *atomic.Value
}

func New(exchange string, routingKey string, opts ...Option) *Transport {
	t := &Transport{
		Exchange:         exchange,
		RoutingKey:       routingKey,
		roundTripper:     &atomic.Value{},
		rootRoundTripper: &atomic.Value{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Send(ctx context.Context, msg *amqp.Publishing) error {
	roundTripper, err := t.getRoundTripper()
	if err != nil {
		return err
	}
	return roundTripper.Publish(ctx, t.Exchange, t.RoutingKey, msg)
}

func (t *Transport) SendTo(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error {
	roundTripper, err := t.getRoundTripper()
	if err != nil {
		return err
	}
	return roundTripper.Publish(ctx, exchange, routingKey, msg)
}

func (t *Transport) SetRoundTripper(rootRoundTripper RoundTripper) {
	t.rootRoundTripper.Store(rootRoundTripper)
	var roundTripper RoundTripper = RoundTripperFunc(t.publish)
	for i := len(t.Middlewares) - 1; i >= 0; i-- {
		roundTripper = t.Middlewares[i](roundTripper)
	}

	t.roundTripper.Store(roundTripper)
}

func (t *Transport) getRoundTripper() (RoundTripper, error) {
	roundTripper, ok := t.roundTripper.Load().(RoundTripper)
	if !ok {
		return nil, ErrTransportIsNotInitialized
	}
	return roundTripper, nil
}

func (t *Transport) publish(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error {
	roundTripper, ok := t.rootRoundTripper.Load().(RoundTripper)
	if !ok {
		return ErrTransportIsNotInitialized
	}
	return roundTripper.Publish(ctx, exchange, routingKey, msg)
}

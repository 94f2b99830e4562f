package receive

import (
	"context"

	"github.com/pkg/errors"
)

// Deserializer turns a transport payload into a typed message
type Deserializer interface {
	Deserialize(delivery *Delivery) (any, error)
}

type ConsumeContext struct {
	Message  any
	Delivery *Delivery
}

// ConsumePipe hands a deserialized message to the application
type ConsumePipe interface {
	Consume(ctx context.Context, consumeContext ConsumeContext) error
}

type ConsumePipeFunc func(ctx context.Context, consumeContext ConsumeContext) error

func (f ConsumePipeFunc) Consume(ctx context.Context, consumeContext ConsumeContext) error {
	return f(ctx, consumeContext)
}

type ErrorHandler func(ctx context.Context, delivery *Delivery, err error)

type PipeOption func(p *deserializeFilter)

// WithErrorHandler is called for every deserialization or consume error before the delivery is rejected
func WithErrorHandler(handler ErrorHandler) PipeOption {
	return func(p *deserializeFilter) {
		p.onError = handler
	}
}

type deserializeFilter struct {
	deserializer Deserializer
	consumePipe  ConsumePipe
	onError      ErrorHandler
}

// DeserializeFilter
// Builds the receive pipe of an endpoint as a single filter stage:
// deserialize the delivery, pass the message to consumePipe.
// A delivery not handled by consumePipe is acked on success
// and rejected without requeue on failure.
func DeserializeFilter(deserializer Deserializer, consumePipe ConsumePipe, opts ...PipeOption) Handler {
	f := &deserializeFilter{
		deserializer: deserializer,
		consumePipe:  consumePipe,
		onError:      func(ctx context.Context, delivery *Delivery, err error) {},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *deserializeFilter) Handle(ctx context.Context, delivery *Delivery) {
	msg, err := f.deserializer.Deserialize(delivery)
	if err != nil {
		f.reject(ctx, delivery, errors.WithMessage(err, "deserialize"))
		return
	}

	err = f.consumePipe.Consume(ctx, ConsumeContext{
		Message:  msg,
		Delivery: delivery,
	})
	if err != nil {
		f.reject(ctx, delivery, errors.WithMessage(err, "consume"))
		return
	}

	if !delivery.Handled() {
		err = delivery.Ack()
		if err != nil {
			f.onError(ctx, delivery, err)
		}
	}
}

func (f *deserializeFilter) reject(ctx context.Context, delivery *Delivery, err error) {
	f.onError(ctx, delivery, err)
	if delivery.Handled() {
		return
	}
	nackErr := delivery.Nack(false)
	if nackErr != nil {
		f.onError(ctx, delivery, nackErr)
	}
}

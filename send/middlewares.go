package send

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

func PersistentMode() Middleware {
	return func(next RoundTripper) RoundTripper {
		return RoundTripperFunc(func(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error {
			msg.DeliveryMode = amqp.Persistent
			return next.Publish(ctx, exchange, routingKey, msg)
		})
	}
}

// ContentType sets the content type expected by the receive side deserializer
func ContentType(contentType string) Middleware {
	return func(next RoundTripper) RoundTripper {
		return RoundTripperFunc(func(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error {
			if msg.ContentType == "" {
				msg.ContentType = contentType
			}
			return next.Publish(ctx, exchange, routingKey, msg)
		})
	}
}

// MessageType fills the type property used to route a message to its deserializer
func MessageType(messageType string) Middleware {
	return func(next RoundTripper) RoundTripper {
		return RoundTripperFunc(func(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error {
			msg.Type = messageType
			return next.Publish(ctx, exchange, routingKey, msg)
		})
	}
}

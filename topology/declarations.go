package topology

import (
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Build applies declarations to a new PublishBuilder and returns the resulting layout
func Build(policy HierarchyPolicy, opts ...DeclarationsOption) (*Layout, error) {
	b := NewPublishBuilder(policy)
	err := Apply(b, opts...)
	if err != nil {
		return nil, err
	}
	return b.BuildTopologyLayout(), nil
}

func Apply(b *PublishBuilder, opts ...DeclarationsOption) error {
	for _, opt := range opts {
		err := opt(b)
		if err != nil {
			return err
		}
	}
	return nil
}

type DeclarationsOption func(b *PublishBuilder) error

type ExchangeOption func(e *Exchange)

func WithExchangeDurable(value bool) ExchangeOption {
	return func(e *Exchange) {
		e.Durable = value
	}
}

func WithExchangeAutoDelete(value bool) ExchangeOption {
	return func(e *Exchange) {
		e.AutoDelete = value
	}
}

func WithExchangeArg(key string, value any) ExchangeOption {
	return func(e *Exchange) {
		e.Args[key] = value
	}
}

type QueueOption func(q *queueSpec)

type queueSpec struct {
	Queue
	dlq bool
}

func WithDLQ(value bool) QueueOption {
	return func(q *queueSpec) {
		q.dlq = value
	}
}

func WithDurable(value bool) QueueOption {
	return func(q *queueSpec) {
		q.Durable = value
	}
}

func WithAutoDelete(value bool) QueueOption {
	return func(q *queueSpec) {
		q.AutoDelete = value
	}
}

func WithExclusive(value bool) QueueOption {
	return func(q *queueSpec) {
		q.Exclusive = value
	}
}

func WithQueueArg(key string, value any) QueueOption {
	return func(q *queueSpec) {
		q.Args[key] = value
	}
}

func WithExchange(name string, kind string, opts ...ExchangeOption) DeclarationsOption {
	exchange := &Exchange{
		Name:    name,
		Type:    kind,
		Durable: true, // default value
		Args:    amqp.Table{},
	}
	for _, opt := range opts {
		opt(exchange)
	}
	return func(b *PublishBuilder) error {
		_, err := b.DeclareExchange(exchange.Name, exchange.Type, exchange.Durable, exchange.AutoDelete, exchange.Args)
		return err
	}
}

func WithDirectExchange(name string, opts ...ExchangeOption) DeclarationsOption {
	return WithExchange(name, amqp.ExchangeDirect, opts...)
}

func WithFanoutExchange(name string, opts ...ExchangeOption) DeclarationsOption {
	return WithExchange(name, amqp.ExchangeFanout, opts...)
}

func WithTopicExchange(name string, opts ...ExchangeOption) DeclarationsOption {
	return WithExchange(name, amqp.ExchangeTopic, opts...)
}

func WithQueue(name string, opts ...QueueOption) DeclarationsOption {
	q := &queueSpec{
		Queue: Queue{
			Name:    name,
			Durable: true, // default value
			Args:    amqp.Table{},
		},
	}
	for _, opt := range opts {
		opt(q)
	}
	return func(b *PublishBuilder) error {
		args := cloneTable(q.Args)
		if q.dlq {
			for key, value := range DeadLetterArgs(q.Name) {
				args[key] = value
			}
		}
		// a conflicting source queue leaves no dead letter entities behind
		_, err := b.DeclareQueue(q.Name, q.Durable, q.AutoDelete, q.Exclusive, args)
		if err != nil {
			return err
		}
		if q.dlq {
			_, err = DeclareDeadLetter(b, q.Name)
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func WithQueueBinding(exchangeName string, queueName string, routingKey string) DeclarationsOption {
	return func(b *PublishBuilder) error {
		exchange, ok := b.TryGetExchange(exchangeName)
		if !ok {
			return errors.WithMessagef(ErrInvalidTopology, "unknown exchange '%s'", exchangeName)
		}
		queue, ok := b.TryGetQueue(queueName)
		if !ok {
			return errors.WithMessagef(ErrInvalidTopology, "unknown queue '%s'", queueName)
		}
		_, err := b.BindQueue(exchange, queue, routingKey, nil)
		return err
	}
}

func WithExchangeBinding(sourceName string, destinationName string, routingKey string) DeclarationsOption {
	return func(b *PublishBuilder) error {
		source, ok := b.TryGetExchange(sourceName)
		if !ok {
			return errors.WithMessagef(ErrInvalidTopology, "unknown exchange '%s'", sourceName)
		}
		destination, ok := b.TryGetExchange(destinationName)
		if !ok {
			return errors.WithMessagef(ErrInvalidTopology, "unknown exchange '%s'", destinationName)
		}
		_, err := b.BindExchange(source, destination, routingKey, nil)
		return err
	}
}

// WithHierarchy
// Publishes a message type hierarchy, exchangeNames are ordered from the base type to the most derived one.
// Every exchange must be declared before.
func WithHierarchy(exchangeNames ...string) DeclarationsOption {
	return func(b *PublishBuilder) error {
		current := b
		for i, name := range exchangeNames {
			exchange, ok := b.TryGetExchange(name)
			if !ok {
				return errors.WithMessagef(ErrInvalidTopology, "unknown exchange '%s'", name)
			}
			if i > 0 {
				current = current.CreateImplementedBuilder()
			}
			err := current.SetExchange(exchange)
			if err != nil {
				return errors.WithMessagef(err, "publish exchange '%s'", name)
			}
		}
		return nil
	}
}

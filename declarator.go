package rmqbus

import (
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/txix-open/rmqbus/topology"
)

// Channel implemented by *amqp.Channel
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	ExchangeBind(destination, key, source string, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Close() error
}

// Declarator provisions a topology layout on a broker.
// Declarations are idempotent on the broker side, so it is applied on every new session.
type Declarator struct {
	layout *topology.Layout
	ch     Channel
}

func NewDeclarator(layout *topology.Layout, ch Channel) *Declarator {
	return &Declarator{
		layout: layout,
		ch:     ch,
	}
}

func (c *Declarator) Run() error {
	for _, exchange := range c.layout.Exchanges() {
		err := c.ch.ExchangeDeclare(exchange.Name, exchange.Type, exchange.Durable, exchange.AutoDelete, false, false, exchange.Args)
		if err != nil {
			return errors.WithMessagef(err, "declare exchange '%s'", exchange.Name)
		}
	}

	for _, binding := range c.layout.ExchangeBindings() {
		err := c.ch.ExchangeBind(binding.Destination.Name, binding.RoutingKey, binding.Source.Name, false, binding.Args)
		if err != nil {
			return errors.WithMessagef(err, "declare binding from exchange '%s' to exchange '%s'", binding.Source.Name, binding.Destination.Name)
		}
	}

	for _, queue := range c.layout.Queues() {
		_, err := c.ch.QueueDeclare(queue.Name, queue.Durable, queue.AutoDelete, queue.Exclusive, false, queue.Args)
		if err != nil {
			return errors.WithMessagef(err, "declare queue '%s'", queue.Name)
		}
	}

	for _, binding := range c.layout.QueueBindings() {
		err := c.ch.QueueBind(binding.Destination.Name, binding.RoutingKey, binding.Source.Name, false, binding.Args)
		if err != nil {
			return errors.WithMessagef(err, "declare binding for queue '%s' to exchange '%s'", binding.Destination.Name, binding.Source.Name)
		}
	}

	return nil
}

func (c *Declarator) Close() error {
	err := c.ch.Close()
	return errors.WithMessage(err, "channel close")
}

package topology

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ExchangeBinding struct {
	Id          int64
	Source      Exchange
	Destination Exchange
	RoutingKey  string
	Args        amqp.Table
}

func (b ExchangeBinding) String() string {
	return describe(
		fmt.Sprintf("source: %s", b.Source.Name),
		fmt.Sprintf("destination: %s", b.Destination.Name),
		fmt.Sprintf("routingKey: %s", b.RoutingKey),
		describeArgs(b.Args),
	)
}

type QueueBinding struct {
	Id          int64
	Source      Exchange
	Destination Queue
	RoutingKey  string
	Args        amqp.Table
}

func (b QueueBinding) String() string {
	return describe(
		fmt.Sprintf("source: %s", b.Source.Name),
		fmt.Sprintf("destination: %s", b.Destination.Name),
		fmt.Sprintf("routingKey: %s", b.RoutingKey),
		describeArgs(b.Args),
	)
}

// exchangeBinding references entities owned by the same builder
type exchangeBinding struct {
	id          int64
	source      *Exchange
	destination *Exchange
	routingKey  string
	args        amqp.Table
}

func (b *exchangeBinding) identity() string {
	return fmt.Sprintf("%d|%d|%q|%s", b.source.Id, b.destination.Id, b.routingKey, argsIdentity(b.args))
}

func (b *exchangeBinding) entityId() int64 {
	return b.id
}

func (b *exchangeBinding) setId(id int64) {
	b.id = id
}

func (b *exchangeBinding) snapshot() ExchangeBinding {
	return ExchangeBinding{
		Id:          b.id,
		Source:      b.source.clone(),
		Destination: b.destination.clone(),
		RoutingKey:  b.routingKey,
		Args:        cloneTable(b.args),
	}
}

type queueBinding struct {
	id          int64
	source      *Exchange
	destination *Queue
	routingKey  string
	args        amqp.Table
}

func (b *queueBinding) identity() string {
	return fmt.Sprintf("%d|%d|%q|%s", b.source.Id, b.destination.Id, b.routingKey, argsIdentity(b.args))
}

func (b *queueBinding) entityId() int64 {
	return b.id
}

func (b *queueBinding) setId(id int64) {
	b.id = id
}

func (b *queueBinding) snapshot() QueueBinding {
	return QueueBinding{
		Id:          b.id,
		Source:      b.source.clone(),
		Destination: b.destination.clone(),
		RoutingKey:  b.routingKey,
		Args:        cloneTable(b.args),
	}
}

func (b ExchangeBinding) clone() ExchangeBinding {
	b.Source = b.Source.clone()
	b.Destination = b.Destination.clone()
	b.Args = cloneTable(b.Args)
	return b
}

func (b QueueBinding) clone() QueueBinding {
	b.Source = b.Source.clone()
	b.Destination = b.Destination.clone()
	b.Args = cloneTable(b.Args)
	return b
}

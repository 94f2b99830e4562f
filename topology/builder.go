package topology

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// TopologyBuilder accepts declarations, *Builder and *PublishBuilder implement it
type TopologyBuilder interface {
	DeclareExchange(name string, kind string, durable bool, autoDelete bool, args amqp.Table) (ExchangeHandle, error)
	DeclareQueue(name string, durable bool, autoDelete bool, exclusive bool, args amqp.Table) (QueueHandle, error)
	BindExchange(source ExchangeHandle, destination ExchangeHandle, routingKey string, args amqp.Table) (ExchangeBindingHandle, error)
	BindQueue(exchange ExchangeHandle, queue QueueHandle, routingKey string, args amqp.Table) (QueueBindingHandle, error)
	TryGetExchange(name string) (ExchangeHandle, bool)
	TryGetQueue(name string) (QueueHandle, bool)
}

type BuilderOption func(b *Builder)

func WithObserver(observer Observer) BuilderOption {
	return func(b *Builder) {
		b.observer = observer
	}
}

// Builder accumulates a topology graph.
// It is not safe for concurrent use, calls must be serialized by the caller.
type Builder struct {
	scope     uuid.UUID
	observer  Observer
	discarded bool

	exchanges        *namedEntityCollection[*Exchange]
	queues           *namedEntityCollection[*Queue]
	exchangeBindings *entityCollection[*exchangeBinding]
	queueBindings    *entityCollection[*queueBinding]
}

func NewBuilder(opts ...BuilderOption) *Builder {
	seq := &sequence{}
	b := &Builder{
		scope:            uuid.New(),
		observer:         NoopObserver{},
		exchanges:        newNamedEntityCollection[*Exchange](seq),
		queues:           newNamedEntityCollection[*Queue](seq),
		exchangeBindings: newEntityCollection[*exchangeBinding](seq),
		queueBindings:    newEntityCollection[*queueBinding](seq),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) DeclareExchange(name string, kind string, durable bool, autoDelete bool, args amqp.Table) (ExchangeHandle, error) {
	if b.discarded {
		return ExchangeHandle{}, errors.WithMessagef(ErrInvalidTopology, "declare exchange '%s' on discarded builder", name)
	}
	if name == "" {
		return ExchangeHandle{}, errors.WithMessage(ErrInvalidTopology, "exchange name is empty")
	}

	candidate := &Exchange{
		Name:       name,
		Type:       kind,
		Durable:    durable,
		AutoDelete: autoDelete,
		Args:       cloneTable(args),
	}
	exchange, created, err := b.exchanges.GetOrAdd(candidate)
	if err != nil {
		b.observer.DeclarationRejected(err)
		return ExchangeHandle{}, err
	}
	if created {
		b.observer.ExchangeDeclared(exchange.clone())
	}
	return ExchangeHandle{b.handle(exchange.Id)}, nil
}

func (b *Builder) DeclareQueue(name string, durable bool, autoDelete bool, exclusive bool, args amqp.Table) (QueueHandle, error) {
	if b.discarded {
		return QueueHandle{}, errors.WithMessagef(ErrInvalidTopology, "declare queue '%s' on discarded builder", name)
	}
	if name == "" {
		return QueueHandle{}, errors.WithMessage(ErrInvalidTopology, "queue name is empty")
	}

	candidate := &Queue{
		Name:       name,
		Durable:    durable,
		AutoDelete: autoDelete,
		Exclusive:  exclusive,
		Args:       cloneTable(args),
	}
	queue, created, err := b.queues.GetOrAdd(candidate)
	if err != nil {
		b.observer.DeclarationRejected(err)
		return QueueHandle{}, err
	}
	if created {
		b.observer.QueueDeclared(queue.clone())
	}
	return QueueHandle{b.handle(queue.Id)}, nil
}

func (b *Builder) BindExchange(source ExchangeHandle, destination ExchangeHandle, routingKey string, args amqp.Table) (ExchangeBindingHandle, error) {
	sourceExchange, err := b.exchange(source)
	if err != nil {
		return ExchangeBindingHandle{}, errors.WithMessage(err, "exchange binding source")
	}
	destinationExchange, err := b.exchange(destination)
	if err != nil {
		return ExchangeBindingHandle{}, errors.WithMessage(err, "exchange binding destination")
	}

	binding, created := b.exchangeBindings.GetOrAdd(&exchangeBinding{
		source:      sourceExchange,
		destination: destinationExchange,
		routingKey:  routingKey,
		args:        cloneTable(args),
	})
	if created {
		b.observer.ExchangeBound(binding.snapshot())
	}
	return ExchangeBindingHandle{b.handle(binding.id)}, nil
}

func (b *Builder) BindQueue(exchange ExchangeHandle, queue QueueHandle, routingKey string, args amqp.Table) (QueueBindingHandle, error) {
	sourceExchange, err := b.exchange(exchange)
	if err != nil {
		return QueueBindingHandle{}, errors.WithMessage(err, "queue binding source")
	}
	destinationQueue, err := b.queue(queue)
	if err != nil {
		return QueueBindingHandle{}, errors.WithMessage(err, "queue binding destination")
	}

	binding, created := b.queueBindings.GetOrAdd(&queueBinding{
		source:      sourceExchange,
		destination: destinationQueue,
		routingKey:  routingKey,
		args:        cloneTable(args),
	})
	if created {
		b.observer.QueueBound(binding.snapshot())
	}
	return QueueBindingHandle{b.handle(binding.id)}, nil
}

func (b *Builder) TryGetExchange(name string) (ExchangeHandle, bool) {
	exchange, ok := b.exchanges.TryGetByName(name)
	if !ok {
		return ExchangeHandle{}, false
	}
	return ExchangeHandle{b.handle(exchange.Id)}, true
}

func (b *Builder) TryGetQueue(name string) (QueueHandle, bool) {
	queue, ok := b.queues.TryGetByName(name)
	if !ok {
		return QueueHandle{}, false
	}
	return QueueHandle{b.handle(queue.Id)}, true
}

func (b *Builder) ExchangeByHandle(h ExchangeHandle) (Exchange, error) {
	exchange, err := b.exchange(h)
	if err != nil {
		return Exchange{}, err
	}
	return exchange.clone(), nil
}

func (b *Builder) QueueByHandle(h QueueHandle) (Queue, error) {
	queue, err := b.queue(h)
	if err != nil {
		return Queue{}, err
	}
	return queue.clone(), nil
}

// BuildTopologyLayout
// Returns a snapshot of the current declarations
// Later declarations on the builder are not visible in the returned layout
func (b *Builder) BuildTopologyLayout() *Layout {
	layout := &Layout{
		exchanges:        make([]Exchange, 0, b.exchanges.Len()),
		exchangeBindings: make([]ExchangeBinding, 0, b.exchangeBindings.Len()),
		queues:           make([]Queue, 0, b.queues.Len()),
		queueBindings:    make([]QueueBinding, 0, b.queueBindings.Len()),
	}
	b.exchanges.Each(func(e *Exchange) {
		layout.exchanges = append(layout.exchanges, e.clone())
	})
	b.exchangeBindings.Each(func(e *exchangeBinding) {
		layout.exchangeBindings = append(layout.exchangeBindings, e.snapshot())
	})
	b.queues.Each(func(e *Queue) {
		layout.queues = append(layout.queues, e.clone())
	})
	b.queueBindings.Each(func(e *queueBinding) {
		layout.queueBindings = append(layout.queueBindings, e.snapshot())
	})
	return layout
}

// Discard
// Invalidates all handles produced by the builder
// Already built layouts stay valid
func (b *Builder) Discard() {
	b.discarded = true
}

func (b *Builder) handle(id int64) handle {
	return handle{scope: b.scope, id: id}
}

func (b *Builder) owns(h handle) error {
	switch {
	case b.discarded:
		return errors.WithMessage(ErrInvalidTopology, "builder is discarded")
	case h.IsZero():
		return errors.WithMessage(ErrInvalidTopology, "handle is not set")
	case h.scope != b.scope:
		return errors.WithMessagef(ErrInvalidTopology, "handle %d belongs to another builder", h.id)
	}
	return nil
}

func (b *Builder) exchange(h ExchangeHandle) (*Exchange, error) {
	err := b.owns(h.handle)
	if err != nil {
		return nil, err
	}
	exchange, ok := b.exchanges.Get(h.id)
	if !ok {
		return nil, errors.WithMessagef(ErrInvalidTopology, "handle %d is not an exchange", h.id)
	}
	return exchange, nil
}

func (b *Builder) queue(h QueueHandle) (*Queue, error) {
	err := b.owns(h.handle)
	if err != nil {
		return nil, err
	}
	queue, ok := b.queues.Get(h.id)
	if !ok {
		return nil, errors.WithMessagef(ErrInvalidTopology, "handle %d is not a queue", h.id)
	}
	return queue, nil
}

package topology_test

import (
	"github.com/txix-open/rmqbus/topology"
	"go.uber.org/atomic"
)

type ObserverCounter struct {
	exchangeDeclared *atomic.Int32
	queueDeclared    *atomic.Int32
	exchangeBound    *atomic.Int32
	queueBound       *atomic.Int32
	rejected         *atomic.Int32
}

func NewObserverCounter() *ObserverCounter {
	return &ObserverCounter{
		exchangeDeclared: atomic.NewInt32(0),
		queueDeclared:    atomic.NewInt32(0),
		exchangeBound:    atomic.NewInt32(0),
		queueBound:       atomic.NewInt32(0),
		rejected:         atomic.NewInt32(0),
	}
}

func (o *ObserverCounter) ExchangeDeclared(exchange topology.Exchange) {
	o.exchangeDeclared.Add(1)
}

func (o *ObserverCounter) QueueDeclared(queue topology.Queue) {
	o.queueDeclared.Add(1)
}

func (o *ObserverCounter) ExchangeBound(binding topology.ExchangeBinding) {
	o.exchangeBound.Add(1)
}

func (o *ObserverCounter) QueueBound(binding topology.QueueBinding) {
	o.queueBound.Add(1)
}

func (o *ObserverCounter) DeclarationRejected(err error) {
	o.rejected.Add(1)
}

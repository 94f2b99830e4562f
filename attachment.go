package rmqbus

import (
	"github.com/pkg/errors"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"github.com/txix-open/rmqbus/topology"
)

// DefaultExchange is the nameless broker exchange routing by queue name, it is never part of a layout
const DefaultExchange = ""

type sendAttachment struct {
	transport *send.Transport
	exchange  topology.Exchange
}

type receiveAttachment struct {
	endpoint receive.Endpoint
	queue    topology.Queue
}

// attachments binds send transports and receive endpoints to entities of a layout
type attachments struct {
	exchanges map[string]topology.Exchange
	sends     []sendAttachment
	receives  []receiveAttachment
}

func attach(layout *topology.Layout, transports []*send.Transport, endpoints []receive.Endpoint) (*attachments, error) {
	result := &attachments{
		exchanges: make(map[string]topology.Exchange),
		sends:     make([]sendAttachment, 0, len(transports)),
		receives:  make([]receiveAttachment, 0, len(endpoints)),
	}
	for _, exchange := range layout.Exchanges() {
		result.exchanges[exchange.Name] = exchange
	}
	queues := make(map[string]topology.Queue)
	for _, queue := range layout.Queues() {
		queues[queue.Name] = queue
	}

	for _, transport := range transports {
		exchange, err := result.exchange(transport.Exchange)
		if err != nil {
			return nil, errors.WithMessagef(err, "send transport routingKey '%s'", transport.RoutingKey)
		}
		result.sends = append(result.sends, sendAttachment{transport: transport, exchange: exchange})
	}

	for _, endpoint := range endpoints {
		queue, ok := queues[endpoint.Queue]
		if !ok {
			return nil, errors.WithMessagef(topology.ErrInvalidTopology, "receive endpoint queue '%s' is not declared", endpoint.Queue)
		}
		result.receives = append(result.receives, receiveAttachment{endpoint: endpoint, queue: queue})
	}

	return result, nil
}

func (a *attachments) exchange(name string) (topology.Exchange, error) {
	if name == DefaultExchange {
		return topology.Exchange{Name: DefaultExchange}, nil
	}
	exchange, ok := a.exchanges[name]
	if !ok {
		return topology.Exchange{}, errors.WithMessagef(topology.ErrInvalidTopology, "exchange '%s' is not declared", name)
	}
	return exchange, nil
}

package topology

// Layout is an immutable snapshot of a topology.
// It is safe for concurrent reads, every accessor returns a copy.
type Layout struct {
	exchanges        []Exchange
	exchangeBindings []ExchangeBinding
	queues           []Queue
	queueBindings    []QueueBinding
}

func (l *Layout) Exchanges() []Exchange {
	result := make([]Exchange, 0, len(l.exchanges))
	for _, e := range l.exchanges {
		result = append(result, e.clone())
	}
	return result
}

func (l *Layout) ExchangeBindings() []ExchangeBinding {
	result := make([]ExchangeBinding, 0, len(l.exchangeBindings))
	for _, b := range l.exchangeBindings {
		result = append(result, b.clone())
	}
	return result
}

func (l *Layout) Queues() []Queue {
	result := make([]Queue, 0, len(l.queues))
	for _, q := range l.queues {
		result = append(result, q.clone())
	}
	return result
}

func (l *Layout) QueueBindings() []QueueBinding {
	result := make([]QueueBinding, 0, len(l.queueBindings))
	for _, b := range l.queueBindings {
		result = append(result, b.clone())
	}
	return result
}

func (l *Layout) IsEmpty() bool {
	return len(l.exchanges) == 0 && len(l.queues) == 0
}

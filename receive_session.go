package rmqbus

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/txix-open/rmqbus/receive"
)

// receiveChannel implemented by *amqp.Channel
type receiveChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	NotifyCancel(c chan string) chan string
	Close() error
}

// receiveSession feeds deliveries of a layout queue into the endpoint receive pipe
type receiveSession struct {
	attachment receiveAttachment
	ch         receiveChannel
	observer   Observer

	ctx      context.Context
	cancel   context.CancelFunc
	workers  *sync.WaitGroup
	inFlight *sync.WaitGroup
}

func newReceiveSession(attachment receiveAttachment, ch receiveChannel, observer Observer) *receiveSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &receiveSession{
		attachment: attachment,
		ch:         ch,
		observer:   observer,
		ctx:        ctx,
		cancel:     cancel,
		workers:    &sync.WaitGroup{},
		inFlight:   &sync.WaitGroup{},
	}
}

func (s *receiveSession) Run() error {
	endpoint := s.attachment.endpoint
	closed := s.ch.NotifyClose(make(chan *amqp.Error, 1))
	cancelled := s.ch.NotifyCancel(make(chan string, 1))
	go s.watch(closed, cancelled)

	if endpoint.PrefetchCount > 0 {
		err := s.ch.Qos(endpoint.PrefetchCount, 0, false)
		if err != nil {
			return errors.WithMessage(err, "set qos")
		}
	}

	deliveries, err := s.ch.Consume(s.attachment.queue.Name, endpoint.Name, false, false, false, false, nil)
	if err != nil {
		return errors.WithMessagef(err, "consume queue '%s'", s.attachment.queue.Name)
	}

	handler := endpoint.Handler()
	for i := 0; i < endpoint.Concurrency; i++ {
		s.workers.Add(1)
		go s.work(deliveries, handler)
	}
	return nil
}

func (s *receiveSession) work(deliveries <-chan amqp.Delivery, handler receive.Handler) {
	defer s.workers.Done()

	for {
		select {
		case delivery, isOpen := <-deliveries:
			if !isOpen { //consumer cancelled
				return
			}
			s.inFlight.Add(1)
			handler.Handle(s.ctx, receive.NewDelivery(s.inFlight, &delivery))
		case <-s.ctx.Done():
			return
		}
	}
}

// watch stops the workers when the channel dies, handlers observe it through the context
func (s *receiveSession) watch(closed chan *amqp.Error, cancelled chan string) {
	endpoint := s.attachment.endpoint
	select {
	case err, isOpen := <-closed:
		if isOpen && err != nil {
			s.observer.ReceiveEndpointError(endpoint, err)
			s.cancel()
		}
	case tag, isOpen := <-cancelled:
		if isOpen {
			s.observer.ReceiveEndpointError(endpoint, errors.Errorf("consumer '%s' of queue '%s' cancelled by broker", tag, s.attachment.queue.Name))
		}
	case <-s.ctx.Done():
	}
}

func (s *receiveSession) Close() error {
	err := s.ch.Cancel(s.attachment.endpoint.Name, false)
	if err != nil {
		return errors.WithMessage(err, "cancel consumer")
	}

	s.workers.Wait()
	s.inFlight.Wait()
	s.cancel()

	err = s.ch.Close()
	if err != nil {
		return errors.WithMessagef(err, "close receive channel of queue '%s'", s.attachment.queue.Name)
	}
	return nil
}

package rmqbus

import (
	"context"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// sendChannel implemented by *amqp.Channel
type sendChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Confirm(noWait bool) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	NotifyFlow(c chan bool) chan bool
	NotifyReturn(c chan amqp.Return) chan amqp.Return
	Close() error
}

// sendSession is the root round tripper of a send.Transport for one connection.
// Messages are published as mandatory, unroutable ones are reported by the observer.
type sendSession struct {
	ch          sendChannel
	attachment  sendAttachment
	attachments *attachments
	observer    Observer
}

func newSendSession(attachment sendAttachment, attachments *attachments, ch sendChannel, observer Observer) *sendSession {
	return &sendSession{
		ch:          ch,
		attachment:  attachment,
		attachments: attachments,
		observer:    observer,
	}
}

func (s *sendSession) Run() error {
	transport := s.attachment.transport
	if transport.Confirm {
		err := s.ch.Confirm(false)
		if err != nil {
			return errors.WithMessage(err, "enable publisher confirms")
		}
	}

	closed := s.ch.NotifyClose(make(chan *amqp.Error, 1))
	flow := s.ch.NotifyFlow(make(chan bool, 1))
	returns := s.ch.NotifyReturn(make(chan amqp.Return, 1))
	go s.watch(closed, flow, returns)

	transport.SetRoundTripper(s)
	return nil
}

// Publish accepts only exchanges of the layout, SendTo may target any of them
func (s *sendSession) Publish(ctx context.Context, exchange string, routingKey string, msg *amqp.Publishing) error {
	_, err := s.attachments.exchange(exchange)
	if err != nil {
		return err
	}

	if !s.attachment.transport.Confirm {
		err = s.ch.PublishWithContext(ctx, exchange, routingKey, true, false, *msg)
		if err != nil {
			return errors.WithMessage(err, "publish")
		}
		return nil
	}

	confirmation, err := s.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, true, false, *msg)
	if err != nil {
		return errors.WithMessage(err, "publish with deferred confirmation")
	}
	if !confirmation.Wait() {
		return errors.Errorf("message with tag %d to exchange '%s' was nacked by broker", confirmation.DeliveryTag, exchange)
	}
	return nil
}

func (s *sendSession) watch(closed chan *amqp.Error, flow chan bool, returns chan amqp.Return) {
	transport := s.attachment.transport
	for {
		select {
		case active, isOpen := <-flow:
			if !isOpen {
				return
			}
			s.observer.SendTransportFlow(transport, active)
		case ret, isOpen := <-returns:
			if !isOpen {
				return
			}
			s.observer.SendTransportReturned(transport, ret)
		case err, isOpen := <-closed:
			if !isOpen { //normal close
				return
			}
			if err != nil {
				s.observer.SendTransportError(transport, err)
				return
			}
		}
	}
}

func (s *sendSession) Close() error {
	err := s.ch.Close()
	if err != nil {
		return errors.WithMessagef(err, "close send channel of exchange '%s'", s.attachment.exchange.Name)
	}
	return nil
}

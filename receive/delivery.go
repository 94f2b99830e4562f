package receive

import (
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrDeliveryAlreadyHandled = errors.New("delivery already handled")
)

type Donner interface {
	Done()
}

// Acknowledger is implemented by *amqp.Delivery
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple bool, requeue bool) error
}

type Delivery struct {
	donner  Donner
	source  *amqp.Delivery
	ack     Acknowledger
	handled bool
}

func NewDelivery(donner Donner, source *amqp.Delivery) *Delivery {
	return &Delivery{
		donner: donner,
		source: source,
		ack:    source,
	}
}

// NewDeliveryWithAcknowledger detaches acknowledgement from the broker channel
func NewDeliveryWithAcknowledger(donner Donner, source *amqp.Delivery, ack Acknowledger) *Delivery {
	return &Delivery{
		donner: donner,
		source: source,
		ack:    ack,
	}
}

func (d *Delivery) Source() *amqp.Delivery {
	return d.source
}

func (d *Delivery) Handled() bool {
	return d.handled
}

func (d *Delivery) Ack() error {
	if d.handled {
		return ErrDeliveryAlreadyHandled
	}

	defer d.donner.Done()
	d.handled = true

	err := d.ack.Ack(false)
	if err != nil {
		return errors.WithMessage(err, "ack delivery")
	}
	return nil
}

func (d *Delivery) Nack(requeue bool) error {
	if d.handled {
		return ErrDeliveryAlreadyHandled
	}

	defer d.donner.Done()
	d.handled = true

	err := d.ack.Nack(false, requeue)
	if err != nil {
		return errors.WithMessage(err, "nack delivery")
	}
	return nil
}

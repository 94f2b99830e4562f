package rmqbus

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
)

type Observer interface {
	ClientReady()
	ClientError(err error)
	ConnectionBlocked(blocking amqp.Blocking)
	ReceiveEndpointError(endpoint receive.Endpoint, err error)
	SendTransportError(transport *send.Transport, err error)
	SendTransportFlow(transport *send.Transport, flow bool)
	// SendTransportReturned reports a mandatory message the broker could not route to any queue
	SendTransportReturned(transport *send.Transport, ret amqp.Return)
	ShutdownStarted()
	ShutdownDone()
}

type NoopObserver struct {
}

func (n NoopObserver) ClientReady() {

}

func (n NoopObserver) ClientError(err error) {

}

func (n NoopObserver) ConnectionBlocked(blocking amqp.Blocking) {

}

func (n NoopObserver) ReceiveEndpointError(endpoint receive.Endpoint, err error) {

}

func (n NoopObserver) SendTransportError(transport *send.Transport, err error) {

}

func (n NoopObserver) SendTransportFlow(transport *send.Transport, flow bool) {

}

func (n NoopObserver) SendTransportReturned(transport *send.Transport, ret amqp.Return) {

}

func (n NoopObserver) ShutdownStarted() {
}

func (n NoopObserver) ShutdownDone() {

}

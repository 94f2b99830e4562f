package rmqbus

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"github.com/txix-open/rmqbus/topology"
)

var (
	_ Observer          = LogObserver{}
	_ topology.Observer = LogObserver{}
)

// LogObserver writes client and topology events to a logrus logger
type LogObserver struct {
	logger logrus.FieldLogger
}

func NewLogObserver(logger logrus.FieldLogger) LogObserver {
	return LogObserver{logger: logger}
}

func (o LogObserver) ClientReady() {
	o.logger.Info("rmq client ready")
}

func (o LogObserver) ClientError(err error) {
	o.logger.WithError(err).Error("rmq client error")
}

func (o LogObserver) ConnectionBlocked(blocking amqp.Blocking) {
	o.logger.WithField("reason", blocking.Reason).Warn("rmq connection blocked")
}

func (o LogObserver) ReceiveEndpointError(endpoint receive.Endpoint, err error) {
	o.logger.WithError(err).WithField("queue", endpoint.Queue).Error("unexpected receive endpoint error")
}

func (o LogObserver) SendTransportError(transport *send.Transport, err error) {
	o.logger.WithError(err).WithFields(logrus.Fields{
		"exchange":   transport.Exchange,
		"routingKey": transport.RoutingKey,
	}).Error("unexpected send transport error")
}

func (o LogObserver) SendTransportFlow(transport *send.Transport, flow bool) {
	o.logger.WithFields(logrus.Fields{
		"exchange": transport.Exchange,
		"flow":     flow,
	}).Warn("send transport flow changed")
}

func (o LogObserver) SendTransportReturned(transport *send.Transport, ret amqp.Return) {
	o.logger.WithFields(logrus.Fields{
		"exchange":   ret.Exchange,
		"routingKey": ret.RoutingKey,
		"replyCode":  ret.ReplyCode,
		"replyText":  ret.ReplyText,
		"transport":  transport.Exchange,
	}).Warn("unroutable message returned")
}

func (o LogObserver) ShutdownStarted() {
	o.logger.Info("rmq client shutdown started")
}

func (o LogObserver) ShutdownDone() {
	o.logger.Info("rmq client shutdown done")
}

func (o LogObserver) ExchangeDeclared(exchange topology.Exchange) {
	o.logger.WithFields(logrus.Fields{
		"id":       exchange.Id,
		"exchange": exchange.Name,
		"type":     exchange.Type,
	}).Debug("exchange declared")
}

func (o LogObserver) QueueDeclared(queue topology.Queue) {
	o.logger.WithFields(logrus.Fields{
		"id":    queue.Id,
		"queue": queue.Name,
	}).Debug("queue declared")
}

func (o LogObserver) ExchangeBound(binding topology.ExchangeBinding) {
	o.logger.WithFields(logrus.Fields{
		"id":          binding.Id,
		"exchange":    binding.Source.Name,
		"destination": binding.Destination.Name,
		"routingKey":  binding.RoutingKey,
	}).Debug("exchange bound")
}

func (o LogObserver) QueueBound(binding topology.QueueBinding) {
	o.logger.WithFields(logrus.Fields{
		"id":         binding.Id,
		"exchange":   binding.Source.Name,
		"queue":      binding.Destination.Name,
		"routingKey": binding.RoutingKey,
	}).Debug("queue bound")
}

func (o LogObserver) DeclarationRejected(err error) {
	o.logger.WithError(err).Error("topology declaration rejected")
}

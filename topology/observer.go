package topology

type Observer interface {
	ExchangeDeclared(exchange Exchange)
	QueueDeclared(queue Queue)
	ExchangeBound(binding ExchangeBinding)
	QueueBound(binding QueueBinding)
	DeclarationRejected(err error)
}

type NoopObserver struct {
}

func (n NoopObserver) ExchangeDeclared(exchange Exchange) {

}

func (n NoopObserver) QueueDeclared(queue Queue) {

}

func (n NoopObserver) ExchangeBound(binding ExchangeBinding) {

}

func (n NoopObserver) QueueBound(binding QueueBinding) {

}

func (n NoopObserver) DeclarationRejected(err error) {

}

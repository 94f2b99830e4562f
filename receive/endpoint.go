package receive

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
)

// Handler is the receive pipe of an endpoint
type Handler interface {
	Handle(ctx context.Context, delivery *Delivery)
}

type HandlerFunc func(ctx context.Context, delivery *Delivery)

func (f HandlerFunc) Handle(ctx context.Context, delivery *Delivery) {
	f(ctx, delivery)
}

type Middleware func(next Handler) Handler

// Endpoint describes consumption of one queue
type Endpoint struct {
	Queue         string
	Name          string
	Concurrency   int
	PrefetchCount int
	Middlewares   []Middleware

	handler Handler
}

func NewEndpoint(handler Handler, queue string, opts ...Option) Endpoint {
	suffix := make([]byte, 8)
	_, err := rand.Read(suffix)
	if err != nil {
		panic(err)
	}
	e := &Endpoint{
		Queue:         queue,
		Name:          fmt.Sprintf("%s_%x", os.Args[0], suffix),
		Concurrency:   1,
		PrefetchCount: 1,
	}
	for _, opt := range opts {
		opt(e)
	}

	for i := len(e.Middlewares) - 1; i >= 0; i-- {
		handler = e.Middlewares[i](handler)
	}
	e.handler = handler

	return *e
}

func (e *Endpoint) Handler() Handler {
	return e.handler
}

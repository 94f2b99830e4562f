package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"github.com/txix-open/rmqbus"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"github.com/txix-open/rmqbus/topology"
)

type OrderCreated struct {
	Id string `json:"id"`
}

func main() {
	log.SetLevel(log.DebugLevel)
	observer := rmqbus.NewLogObserver(log.StandardLogger())

	//every message type publishes to its own exchange
	//the exchange of a derived type is bound from the exchange of its base type
	b := topology.NewPublishBuilder(topology.MaintainHierarchy, topology.WithObserver(observer))
	err := topology.Apply(b,
		topology.WithFanoutExchange("events"),
		topology.WithFanoutExchange("orders.created"),
		topology.WithQueue("orders", topology.WithDLQ(true)),
		topology.WithQueueBinding("orders.created", "orders", ""),
		//base type first, otherwise no binding is created
		topology.WithHierarchy("events", "orders.created"),
	)
	if err != nil {
		panic(err)
	}
	layout := b.BuildTopologyLayout()

	dot, err := layout.Visualize()
	if err != nil {
		panic(err)
	}
	fmt.Println(dot)

	deserializer := receive.NewJSONDeserializer()
	receive.Register[OrderCreated](deserializer, "order.created")
	consumePipe := receive.ConsumePipeFunc(func(ctx context.Context, cc receive.ConsumeContext) error {
		log.WithField("id", cc.Message.(*OrderCreated).Id).Info("order created")
		return nil
	})

	endpointAddress, err := url.Parse("rabbitmq://localhost/orders")
	if err != nil {
		panic(err)
	}
	busBuilder, err := rmqbus.NewBusBuilder(
		[]rmqbus.Host{{URL: amqpUrl()}},
		rmqbus.EndpointSpecification{
			Address: endpointAddress,
			Options: []receive.Option{receive.WithConcurrency(8), receive.WithPrefetchCount(8)},
		},
		deserializer,
		consumePipe,
		rmqbus.WithBusLayout(layout),
		rmqbus.WithBusObserver(observer),
		rmqbus.WithReceivePipeOptions(receive.WithErrorHandler(func(ctx context.Context, delivery *receive.Delivery, err error) {
			log.WithError(err).Error("message rejected")
		})),
		rmqbus.WithSendTransportOptions(send.WithMiddlewares(
			send.PersistentMode(),
			send.ContentType(receive.ContentTypeJson),
		)),
	)
	if err != nil {
		panic(err)
	}

	eventsAddress, err := url.Parse("rabbitmq://localhost/events")
	if err != nil {
		panic(err)
	}
	transport, err := busBuilder.SendTransportProvider().GetSendTransport(eventsAddress)
	if err != nil {
		panic(err)
	}

	bus := busBuilder.Build()
	log.WithField("inputAddress", bus.InputAddress().String()).Info("bus built")
	//it connects to every host
	//declares the layout
	//inits send transports and receive endpoints
	err = bus.Run(context.Background())
	if err != nil {
		panic(err)
	}

	//published to the base exchange, received through the derived one
	err = transport.Send(context.Background(), &amqp091.Publishing{
		Type: "order.created",
		Body: []byte(`{"id":"42"}`),
	})
	if err != nil {
		panic(err)
	}

	time.Sleep(3 * time.Second)

	bus.Shutdown()
}

func amqpUrl() string {
	host := envOrDefault("RMQ_HOST", "127.0.0.1")
	user := envOrDefault("RMQ_USER", "guest")
	pass := envOrDefault("RMQ_PASS", "guest")

	return fmt.Sprintf("amqp://%s:%s@%s:5672/", user, pass, host)
}

func envOrDefault(name string, defValue string) string {
	value := os.Getenv(name)
	if value != "" {
		return value
	}
	return defValue
}

package rmqbus_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/txix-open/rmqbus"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"github.com/txix-open/rmqbus/topology"
)

type orderCreated struct {
	Id string `json:"id"`
}

func mustParse(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func noopConsumePipe() receive.ConsumePipe {
	return receive.ConsumePipeFunc(func(ctx context.Context, consumeContext receive.ConsumeContext) error {
		return nil
	})
}

func TestBusBuilder_InputAddress(t *testing.T) {
	require := require.New(t)

	address := mustParse(t, "rabbitmq://localhost/vhost/orders")
	b, err := rmqbus.NewBusBuilder(
		[]rmqbus.Host{{URL: "amqp://localhost/vhost"}},
		rmqbus.EndpointSpecification{Address: address},
		receive.NewJSONDeserializer(),
		noopConsumePipe(),
	)
	require.NoError(err)

	input := b.InputAddress()
	require.Equal("reply://localhost/vhost/orders", input.String())
	require.Equal("rabbitmq", address.Scheme)
	require.Equal("reply://localhost/vhost/orders", b.Build().InputAddress().String())
}

func TestBusBuilder_Validation(t *testing.T) {
	require := require.New(t)

	_, err := rmqbus.NewBusBuilder(nil, rmqbus.EndpointSpecification{}, nil, nil)
	require.True(errors.Is(err, rmqbus.ErrNoHosts))

	hosts := []rmqbus.Host{{URL: "amqp://localhost"}}
	_, err = rmqbus.NewBusBuilder(hosts, rmqbus.EndpointSpecification{}, receive.NewJSONDeserializer(), noopConsumePipe())
	require.EqualError(err, "endpoint address is required")

	endpoint := rmqbus.EndpointSpecification{Address: mustParse(t, "rabbitmq://localhost/orders")}
	_, err = rmqbus.NewBusBuilder(hosts, endpoint, nil, noopConsumePipe())
	require.EqualError(err, "deserializer is required")

	_, err = rmqbus.NewBusBuilder(hosts, endpoint, receive.NewJSONDeserializer(), nil)
	require.EqualError(err, "consume pipe is required")

	_, err = rmqbus.NewBusBuilder(hosts, endpoint, receive.NewJSONDeserializer(), noopConsumePipe())
	require.NoError(err)
}

func TestSendTransportProvider(t *testing.T) {
	require := require.New(t)

	b, err := rmqbus.NewBusBuilder(
		[]rmqbus.Host{{URL: "amqp://localhost/"}},
		rmqbus.EndpointSpecification{Address: mustParse(t, "rabbitmq://localhost/orders")},
		receive.NewJSONDeserializer(),
		noopConsumePipe(),
		rmqbus.WithSendTransportOptions(send.WithMiddlewares(send.PersistentMode())),
	)
	require.NoError(err)
	provider := b.SendTransportProvider()

	first, err := provider.GetSendTransport(mustParse(t, "rabbitmq://localhost/vhost/events?routingKey=order.created"))
	require.NoError(err)
	require.Equal("events", first.Exchange)
	require.Equal("order.created", first.RoutingKey)
	require.Len(first.Middlewares, 1)

	same, err := provider.GetSendTransport(mustParse(t, "rabbitmq://localhost/vhost/events?routingKey=order.created"))
	require.NoError(err)
	require.Same(first, same)

	other, err := provider.GetSendTransport(mustParse(t, "rabbitmq://localhost/vhost/events"))
	require.NoError(err)
	require.NotSame(first, other)
	require.Equal("", other.RoutingKey)

	b.Build()

	_, err = provider.GetSendTransport(mustParse(t, "rabbitmq://localhost/vhost/unknown"))
	require.True(errors.Is(err, rmqbus.ErrSendTransportProviderSealed))
	cached, err := provider.GetSendTransport(mustParse(t, "rabbitmq://localhost/vhost/events"))
	require.NoError(err)
	require.Same(other, cached)

	err = other.Send(context.Background(), &amqp.Publishing{})
	require.True(errors.Is(err, send.ErrTransportIsNotInitialized))
}

func TestBus_RoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	amqpUrl := amqpUrl(t)
	layout, err := topology.Build(
		topology.MaintainHierarchy,
		topology.WithFanoutExchange("events"),
		topology.WithFanoutExchange("orders"),
		topology.WithQueue("orders"),
		topology.WithQueueBinding("orders", "orders", ""),
		topology.WithHierarchy("events", "orders"),
	)
	require.NoError(err)

	deserializer := receive.NewJSONDeserializer()
	receive.Register[orderCreated](deserializer, "order.created")
	received := make(chan *orderCreated, 1)
	consumePipe := receive.ConsumePipeFunc(func(ctx context.Context, consumeContext receive.ConsumeContext) error {
		received <- consumeContext.Message.(*orderCreated)
		return nil
	})

	b, err := rmqbus.NewBusBuilder(
		[]rmqbus.Host{{URL: amqpUrl}},
		rmqbus.EndpointSpecification{Address: mustParse(t, "rabbitmq://localhost/orders")},
		deserializer,
		consumePipe,
		rmqbus.WithBusLayout(layout),
		rmqbus.WithSendTransportOptions(send.WithMiddlewares(
			send.ContentType(receive.ContentTypeJson),
			send.MessageType("order.created"),
		)),
	)
	require.NoError(err)
	transport, err := b.SendTransportProvider().GetSendTransport(mustParse(t, "rabbitmq://localhost/events"))
	require.NoError(err)

	bus := b.Build()
	err = bus.Run(context.Background())
	require.NoError(err)
	defer bus.Shutdown()

	err = transport.Send(context.Background(), &amqp.Publishing{Body: []byte(`{"id":"1"}`)})
	require.NoError(err)

	select {
	case msg := <-received:
		require.Equal("1", msg.Id)
	case <-time.After(1 * time.Second):
		require.Fail("consume pipe wasn't called")
	}
}

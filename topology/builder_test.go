package topology_test

import (
	"testing"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/txix-open/rmqbus/topology"
)

func TestBuilder_DeclareQueueIdempotent(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b := topology.NewBuilder()
	first, err := b.DeclareQueue("queue", true, false, true, amqp.Table{"x-max-length": int32(10)})
	require.NoError(err)
	second, err := b.DeclareQueue("queue", true, false, true, amqp.Table{"x-max-length": int32(10)})
	require.NoError(err)
	require.Equal(first, second)

	queues := b.BuildTopologyLayout().Queues()
	require.Len(queues, 1)
	require.Equal("queue", queues[0].Name)
	require.True(queues[0].Durable)
	require.True(queues[0].Exclusive)
	require.EqualValues(int32(10), queues[0].Args["x-max-length"])
}

func TestBuilder_NamingConflict(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	observer := NewObserverCounter()
	b := topology.NewBuilder(topology.WithObserver(observer))
	_, err := b.DeclareExchange("orders", amqp.ExchangeFanout, true, false, nil)
	require.NoError(err)

	_, err = b.DeclareExchange("orders", amqp.ExchangeFanout, false, false, nil)
	require.Error(err)
	require.True(errors.Is(err, topology.ErrNamingConflict))

	exchanges := b.BuildTopologyLayout().Exchanges()
	require.Len(exchanges, 1)
	require.True(exchanges[0].Durable)
	require.EqualValues(1, observer.exchangeDeclared.Load())
	require.EqualValues(1, observer.rejected.Load())
}

func TestBuilder_EmptyName(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b := topology.NewBuilder()
	_, err := b.DeclareExchange("", amqp.ExchangeDirect, true, false, nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))
	_, err = b.DeclareQueue("", true, false, false, nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))
}

func TestBuilder_ArgumentsAreCopied(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b := topology.NewBuilder()
	args := amqp.Table{"x-message-ttl": int32(1000)}
	h, err := b.DeclareQueue("queue", true, false, false, args)
	require.NoError(err)
	args["x-message-ttl"] = int32(5)

	q, err := b.QueueByHandle(h)
	require.NoError(err)
	require.EqualValues(int32(1000), q.Args["x-message-ttl"])

	again, err := b.DeclareQueue("queue", true, false, false, amqp.Table{"x-message-ttl": int32(1000)})
	require.NoError(err)
	require.Equal(h, again)
}

func TestBuilder_Bindings(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	observer := NewObserverCounter()
	b := topology.NewBuilder(topology.WithObserver(observer))
	source, err := b.DeclareExchange("source", amqp.ExchangeTopic, true, false, nil)
	require.NoError(err)
	destination, err := b.DeclareExchange("destination", amqp.ExchangeFanout, true, false, nil)
	require.NoError(err)
	queue, err := b.DeclareQueue("queue", true, false, false, nil)
	require.NoError(err)

	eb1, err := b.BindExchange(source, destination, "orders.*", nil)
	require.NoError(err)
	eb2, err := b.BindExchange(source, destination, "orders.*", amqp.Table{})
	require.NoError(err)
	require.Equal(eb1, eb2)

	_, err = b.BindQueue(destination, queue, "", nil)
	require.NoError(err)
	_, err = b.BindQueue(destination, queue, "other", nil)
	require.NoError(err)

	layout := b.BuildTopologyLayout()
	exchangeBindings := layout.ExchangeBindings()
	require.Len(exchangeBindings, 1)
	require.Equal("source", exchangeBindings[0].Source.Name)
	require.Equal("destination", exchangeBindings[0].Destination.Name)
	require.Equal("orders.*", exchangeBindings[0].RoutingKey)
	require.NotNil(exchangeBindings[0].Args)

	queueBindings := layout.QueueBindings()
	require.Len(queueBindings, 2)
	require.Equal("queue", queueBindings[0].Destination.Name)
	require.Equal("", queueBindings[0].RoutingKey)
	require.Equal("other", queueBindings[1].RoutingKey)

	require.EqualValues(1, observer.exchangeBound.Load())
	require.EqualValues(2, observer.queueBound.Load())
}

func TestBuilder_ForeignHandle(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b1 := topology.NewBuilder()
	b2 := topology.NewBuilder()
	foreign, err := b1.DeclareExchange("exchange", amqp.ExchangeDirect, true, false, nil)
	require.NoError(err)
	own, err := b2.DeclareExchange("exchange", amqp.ExchangeDirect, true, false, nil)
	require.NoError(err)
	queue, err := b2.DeclareQueue("queue", true, false, false, nil)
	require.NoError(err)

	_, err = b2.BindExchange(foreign, own, "", nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))
	_, err = b2.BindExchange(own, foreign, "", nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))
	_, err = b2.BindQueue(foreign, queue, "", nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))
	_, err = b2.BindQueue(own, topology.QueueHandle{}, "", nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))

	require.Empty(b2.BuildTopologyLayout().ExchangeBindings())
	require.Empty(b2.BuildTopologyLayout().QueueBindings())
}

func TestBuilder_Discard(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b := topology.NewBuilder()
	exchange, err := b.DeclareExchange("exchange", amqp.ExchangeDirect, true, false, nil)
	require.NoError(err)
	queue, err := b.DeclareQueue("queue", true, false, false, nil)
	require.NoError(err)
	layout := b.BuildTopologyLayout()

	b.Discard()

	_, err = b.BindQueue(exchange, queue, "", nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))
	_, err = b.DeclareQueue("other", true, false, false, nil)
	require.True(errors.Is(err, topology.ErrInvalidTopology))
	_, err = b.ExchangeByHandle(exchange)
	require.True(errors.Is(err, topology.ErrInvalidTopology))

	require.Len(layout.Exchanges(), 1)
	require.Len(layout.Queues(), 1)
}

func TestBuilder_TryGet(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b := topology.NewBuilder()
	exchange, err := b.DeclareExchange("exchange", amqp.ExchangeHeaders, false, true, nil)
	require.NoError(err)

	found, ok := b.TryGetExchange("exchange")
	require.True(ok)
	require.Equal(exchange, found)
	require.Equal(exchange.Id(), found.Id())

	_, ok = b.TryGetQueue("exchange")
	require.False(ok)

	e, err := b.ExchangeByHandle(found)
	require.NoError(err)
	require.Equal("name: exchange, type: headers, auto-delete", e.String())
}

func TestBuilder_ArgumentValuesAreEscaped(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b := topology.NewBuilder()
	first, err := b.DeclareQueue("queue", true, false, false, amqp.Table{"a": "1,\"b\"=string:2"})
	require.NoError(err)

	_, err = b.DeclareQueue("queue", true, false, false, amqp.Table{"a": "1", "b": "2"})
	require.True(errors.Is(err, topology.ErrNamingConflict))

	_, err = b.DeclareQueue("nested", true, false, false, amqp.Table{"t": amqp.Table{"x": "1 y:2"}})
	require.NoError(err)
	_, err = b.DeclareQueue("nested", true, false, false, amqp.Table{"t": amqp.Table{"x": "1", "y": "2"}})
	require.True(errors.Is(err, topology.ErrNamingConflict))

	queue, err := b.QueueByHandle(first)
	require.NoError(err)
	require.Equal(amqp.Table{"a": "1,\"b\"=string:2"}, queue.Args)
}

func TestBuilder_ArgumentTypeMismatchMessage(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	b := topology.NewBuilder()
	_, err := b.DeclareExchange("exchange", amqp.ExchangeDirect, true, false, amqp.Table{"x": int32(1)})
	require.NoError(err)
	_, err = b.DeclareExchange("exchange", amqp.ExchangeDirect, true, false, amqp.Table{"x": int64(1)})
	require.True(errors.Is(err, topology.ErrNamingConflict))
	require.Contains(err.Error(), "x: int32(1)")
	require.Contains(err.Error(), "x: int64(1)")

	_, err = b.DeclareQueue("queue", true, false, false, amqp.Table{"x": int32(1)})
	require.NoError(err)
	_, err = b.DeclareQueue("queue", true, false, false, amqp.Table{"x": int64(1)})
	require.True(errors.Is(err, topology.ErrNamingConflict))
	require.Contains(err.Error(), "{x: int32(1)} != {x: int64(1)}")
}

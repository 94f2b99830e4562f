package rmqbus_test

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"go.uber.org/atomic"
)

// amqpUrl creates a dedicated vhost through the management api, skips the test without a broker
func amqpUrl(t *testing.T) string {
	if os.Getenv("RMQ_HOST") == "" {
		t.Skip("RMQ_HOST is not set")
	}
	require := require.New(t)

	host := envOrDefault("RMQ_HOST", "127.0.0.1")
	user := envOrDefault("RMQ_USER", "guest")
	pass := envOrDefault("RMQ_PASS", "guest")

	vhostPrefix := make([]byte, 4)
	_, err := rand.Read(vhostPrefix)
	require.NoError(err)
	vhost := fmt.Sprintf("%x_%s", vhostPrefix, strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_")))

	vhostUrl := fmt.Sprintf("http://%s:15672/api/vhosts/%s", host, vhost)

	req, err := http.NewRequest(http.MethodPut, vhostUrl, nil)
	require.NoError(err)
	req.SetBasicAuth(user, pass)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(err)
	require.EqualValues(http.StatusCreated, resp.StatusCode)

	t.Cleanup(func() {
		req, err := http.NewRequest(http.MethodDelete, vhostUrl, nil)
		require.NoError(err)
		req.SetBasicAuth(user, pass)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(err)
		require.EqualValues(http.StatusNoContent, resp.StatusCode)
	})

	return fmt.Sprintf("amqp://%s:%s@%s:5672/%s", user, pass, host, vhost)
}

func envOrDefault(name string, defValue string) string {
	value := os.Getenv(name)
	if value != "" {
		return value
	}
	return defValue
}

func amqpChannel(t *testing.T, url string) *amqp091.Channel {
	require := require.New(t)
	c, err := amqp091.Dial(url)
	require.NoError(err)
	t.Cleanup(func() {
		err := c.Close()
		require.NoError(err)
	})

	ch, err := c.Channel()
	require.NoError(err)

	return ch
}

func queueSize(t *testing.T, url string, queue string) int {
	require := require.New(t)

	ch := amqpChannel(t, url)

	q, err := ch.QueueInspect(queue)
	require.NoError(err)
	return q.Messages
}

type ObserverCounter struct {
	clientReady        *atomic.Int32
	clientError        *atomic.Int32
	endpointError      *atomic.Int32
	shutdownStarted    *atomic.Int32
	shutdownDone       *atomic.Int32
	sendTransportError *atomic.Int32
	sendTransportFlow  *atomic.Int32
	returned           *atomic.Int32
}

func NewObserverCounter() *ObserverCounter {
	return &ObserverCounter{
		clientReady:        atomic.NewInt32(0),
		clientError:        atomic.NewInt32(0),
		endpointError:      atomic.NewInt32(0),
		shutdownStarted:    atomic.NewInt32(0),
		shutdownDone:       atomic.NewInt32(0),
		sendTransportError: atomic.NewInt32(0),
		sendTransportFlow:  atomic.NewInt32(0),
		returned:           atomic.NewInt32(0),
	}
}

func (o *ObserverCounter) ClientReady() {
	o.clientReady.Add(1)
}

func (o *ObserverCounter) ClientError(err error) {
	o.clientError.Add(1)
}

func (o *ObserverCounter) ConnectionBlocked(blocking amqp091.Blocking) {
}

func (o *ObserverCounter) ReceiveEndpointError(endpoint receive.Endpoint, err error) {
	o.endpointError.Add(1)
}

func (o *ObserverCounter) SendTransportError(transport *send.Transport, err error) {
	o.sendTransportError.Add(1)
}

func (o *ObserverCounter) SendTransportFlow(transport *send.Transport, flow bool) {
	o.sendTransportFlow.Add(1)
}

func (o *ObserverCounter) SendTransportReturned(transport *send.Transport, ret amqp091.Return) {
	o.returned.Add(1)
}

func (o *ObserverCounter) ShutdownStarted() {
	o.shutdownStarted.Add(1)
}

func (o *ObserverCounter) ShutdownDone() {
	o.shutdownDone.Add(1)
}

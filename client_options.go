package rmqbus

import (
	"time"

	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"github.com/txix-open/rmqbus/topology"
)

type ClientOption func(c *Client)

func WithSendTransports(transports ...*send.Transport) ClientOption {
	return func(c *Client) {
		c.sendTransports = transports
	}
}

func WithReceiveEndpoints(endpoints ...receive.Endpoint) ClientOption {
	return func(c *Client) {
		c.receiveEndpoints = endpoints
	}
}

func WithLayout(layout *topology.Layout) ClientOption {
	return func(c *Client) {
		c.layout = layout
	}
}

// WithTopologyBuilding builds the layout eagerly, a build error is returned by Run
func WithTopologyBuilding(policy topology.HierarchyPolicy, options ...topology.DeclarationsOption) ClientOption {
	layout, err := topology.Build(policy, options...)
	return func(c *Client) {
		c.layout = layout
		c.layoutErr = err
	}
}

func WithObserver(observer Observer) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

func WithReconnectTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.reconnectTimeout = timeout
	}
}

func WithDialConfig(config DialConfig) ClientOption {
	return func(c *Client) {
		c.dialConfig = config
	}
}

package rmqbus

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/txix-open/rmqbus/receive"
	"github.com/txix-open/rmqbus/send"
	"github.com/txix-open/rmqbus/topology"
)

const (
	ReplyScheme = "reply"

	routingKeyParam = "routingKey"
)

var (
	ErrNoHosts                     = errors.New("no hosts configured")
	ErrSendTransportProviderSealed = errors.New("send transport provider is sealed")
)

type Host struct {
	URL       string
	Endpoints []receive.Endpoint
	Options   []ClientOption
}

// EndpointSpecification describes the bus receive endpoint on the first host
type EndpointSpecification struct {
	Address *url.URL
	// Queue defaults to the last segment of Address path
	Queue   string
	Options []receive.Option
}

func (s EndpointSpecification) queue() string {
	if s.Queue != "" {
		return s.Queue
	}
	return lastSegment(s.Address.Path)
}

type BusOption func(b *BusBuilder)

func WithBusLayout(layout *topology.Layout) BusOption {
	return func(b *BusBuilder) {
		b.layout = layout
	}
}

func WithBusObserver(observer Observer) BusOption {
	return func(b *BusBuilder) {
		b.observer = observer
	}
}

func WithReceivePipeOptions(opts ...receive.PipeOption) BusOption {
	return func(b *BusBuilder) {
		b.pipeOpts = opts
	}
}

func WithSendTransportOptions(opts ...send.Option) BusOption {
	return func(b *BusBuilder) {
		b.sendOpts = opts
	}
}

// BusBuilder composes hosts, the bus endpoint, the send transport provider and the receive pipe
type BusBuilder struct {
	hosts        []Host
	endpoint     EndpointSpecification
	deserializer receive.Deserializer
	consumePipe  receive.ConsumePipe
	layout       *topology.Layout
	observer     Observer
	pipeOpts     []receive.PipeOption
	sendOpts     []send.Option
	provider     *SendTransportProvider
}

func NewBusBuilder(
	hosts []Host,
	endpoint EndpointSpecification,
	deserializer receive.Deserializer,
	consumePipe receive.ConsumePipe,
	opts ...BusOption,
) (*BusBuilder, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}
	if endpoint.Address == nil {
		return nil, errors.New("endpoint address is required")
	}
	if deserializer == nil {
		return nil, errors.New("deserializer is required")
	}
	if consumePipe == nil {
		return nil, errors.New("consume pipe is required")
	}

	b := &BusBuilder{
		hosts:        hosts,
		endpoint:     endpoint,
		deserializer: deserializer,
		consumePipe:  consumePipe,
		layout:       topology.NewBuilder().BuildTopologyLayout(),
		observer:     NoopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.provider = newSendTransportProvider(b.sendOpts)
	return b, nil
}

// InputAddress is the endpoint address with the reply scheme
func (b *BusBuilder) InputAddress() *url.URL {
	addr := *b.endpoint.Address
	addr.Scheme = ReplyScheme
	return &addr
}

func (b *BusBuilder) SendTransportProvider() *SendTransportProvider {
	return b.provider
}

func (b *BusBuilder) ReceivePipe() receive.Handler {
	return receive.DeserializeFilter(b.deserializer, b.consumePipe, b.pipeOpts...)
}

// Build seals the send transport provider and creates one client per host.
// The bus endpoint and all send transports are attached to the first host.
func (b *BusBuilder) Build() *Bus {
	transports := b.provider.seal()

	clients := make([]*Client, 0, len(b.hosts))
	for i, host := range b.hosts {
		endpoints := append([]receive.Endpoint{}, host.Endpoints...)
		opts := []ClientOption{
			WithLayout(b.layout),
			WithObserver(b.observer),
		}
		if i == 0 {
			busEndpoint := receive.NewEndpoint(b.ReceivePipe(), b.endpoint.queue(), b.endpoint.Options...)
			endpoints = append([]receive.Endpoint{busEndpoint}, endpoints...)
			opts = append(opts, WithSendTransports(transports...))
		}
		opts = append(opts, WithReceiveEndpoints(endpoints...))
		opts = append(opts, host.Options...)
		clients = append(clients, New(host.URL, opts...))
	}

	return &Bus{
		inputAddress: b.InputAddress(),
		clients:      clients,
	}
}

type Bus struct {
	inputAddress *url.URL
	clients      []*Client
}

func (b *Bus) InputAddress() *url.URL {
	addr := *b.inputAddress
	return &addr
}

// Run starts every host client, returns the first error
func (b *Bus) Run(ctx context.Context) error {
	for i, client := range b.clients {
		err := client.Run(ctx)
		if err != nil {
			return errors.WithMessagef(err, "run host %d", i)
		}
	}
	return nil
}

func (b *Bus) Shutdown() {
	for i := len(b.clients); i > 0; i-- {
		b.clients[i-1].Shutdown()
	}
}

// SendTransportProvider caches send transports by destination address.
// Address format: <scheme>://<host>/<vhost>/<exchange>?routingKey=<key>
type SendTransportProvider struct {
	opts       []send.Option
	transports map[string]*send.Transport
	order      []*send.Transport
	sealed     bool
}

func newSendTransportProvider(opts []send.Option) *SendTransportProvider {
	return &SendTransportProvider{
		opts:       opts,
		transports: make(map[string]*send.Transport),
	}
}

func (p *SendTransportProvider) GetSendTransport(address *url.URL) (*send.Transport, error) {
	key := address.String()
	transport, ok := p.transports[key]
	if ok {
		return transport, nil
	}
	if p.sealed {
		return nil, errors.WithMessagef(ErrSendTransportProviderSealed, "address '%s'", key)
	}

	transport = send.New(lastSegment(address.Path), address.Query().Get(routingKeyParam), p.opts...)
	p.transports[key] = transport
	p.order = append(p.order, transport)
	return transport, nil
}

func (p *SendTransportProvider) seal() []*send.Transport {
	p.sealed = true
	return p.order
}

func lastSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return segments[len(segments)-1]
}

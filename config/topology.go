package config

import (
	"strings"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/viper"
	"github.com/txix-open/rmqbus/topology"
)

const (
	EnvPrefix = "RMQBUS"
)

// Topology is a file description of a layout.
// Viper lowercases map keys, so argument names must be lowercase.
type Topology struct {
	Hierarchy        string     `mapstructure:"hierarchy"`
	Exchanges        []Exchange `mapstructure:"exchanges"`
	Queues           []Queue    `mapstructure:"queues"`
	ExchangeBindings []Binding  `mapstructure:"exchangeBindings"`
	QueueBindings    []Binding  `mapstructure:"queueBindings"`
	// Hierarchies lists exchange names ordered from the base message type to the most derived one
	Hierarchies [][]string `mapstructure:"hierarchies"`
}

type Exchange struct {
	Name       string         `mapstructure:"name"`
	Type       string         `mapstructure:"type"`
	Durable    *bool          `mapstructure:"durable"`
	AutoDelete bool           `mapstructure:"autoDelete"`
	Args       map[string]any `mapstructure:"args"`
}

type Queue struct {
	Name       string         `mapstructure:"name"`
	Durable    *bool          `mapstructure:"durable"`
	AutoDelete bool           `mapstructure:"autoDelete"`
	Exclusive  bool           `mapstructure:"exclusive"`
	DLQ        bool           `mapstructure:"dlq"`
	Args       map[string]any `mapstructure:"args"`
}

type Binding struct {
	Source      string `mapstructure:"source"`
	Destination string `mapstructure:"destination"`
	RoutingKey  string `mapstructure:"routingKey"`
}

// Load reads a yaml, json or toml file, RMQBUS_HIERARCHY overrides the hierarchy policy
func Load(path string) (*Topology, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("hierarchy", topology.FlattenHierarchy.String())

	err := v.ReadInConfig()
	if err != nil {
		return nil, errors.WithMessagef(err, "read config '%s'", path)
	}

	cfg := &Topology{}
	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "unmarshal config")
	}
	return cfg, nil
}

func (t Topology) Policy() (topology.HierarchyPolicy, error) {
	switch strings.ToLower(t.Hierarchy) {
	case "", topology.FlattenHierarchy.String():
		return topology.FlattenHierarchy, nil
	case topology.MaintainHierarchy.String():
		return topology.MaintainHierarchy, nil
	default:
		return 0, errors.Errorf("unknown hierarchy policy '%s'", t.Hierarchy)
	}
}

func (t Topology) Declarations() []topology.DeclarationsOption {
	opts := make([]topology.DeclarationsOption, 0)
	for _, e := range t.Exchanges {
		exchangeOpts := []topology.ExchangeOption{
			topology.WithExchangeDurable(boolOrDefault(e.Durable, true)),
			topology.WithExchangeAutoDelete(e.AutoDelete),
		}
		for key, value := range e.Args {
			exchangeOpts = append(exchangeOpts, topology.WithExchangeArg(key, value))
		}
		kind := e.Type
		if kind == "" {
			kind = amqp.ExchangeFanout
		}
		opts = append(opts, topology.WithExchange(e.Name, kind, exchangeOpts...))
	}
	for _, q := range t.Queues {
		queueOpts := []topology.QueueOption{
			topology.WithDurable(boolOrDefault(q.Durable, true)),
			topology.WithAutoDelete(q.AutoDelete),
			topology.WithExclusive(q.Exclusive),
			topology.WithDLQ(q.DLQ),
		}
		for key, value := range q.Args {
			queueOpts = append(queueOpts, topology.WithQueueArg(key, value))
		}
		opts = append(opts, topology.WithQueue(q.Name, queueOpts...))
	}
	for _, b := range t.ExchangeBindings {
		opts = append(opts, topology.WithExchangeBinding(b.Source, b.Destination, b.RoutingKey))
	}
	for _, b := range t.QueueBindings {
		opts = append(opts, topology.WithQueueBinding(b.Source, b.Destination, b.RoutingKey))
	}
	for _, h := range t.Hierarchies {
		opts = append(opts, topology.WithHierarchy(h...))
	}
	return opts
}

func (t Topology) Build(opts ...topology.BuilderOption) (*topology.Layout, error) {
	policy, err := t.Policy()
	if err != nil {
		return nil, err
	}

	b := topology.NewPublishBuilder(policy, opts...)
	err = topology.Apply(b, t.Declarations()...)
	if err != nil {
		return nil, errors.WithMessage(err, "apply declarations")
	}
	return b.BuildTopologyLayout(), nil
}

func boolOrDefault(value *bool, def bool) bool {
	if value == nil {
		return def
	}
	return *value
}

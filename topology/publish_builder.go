package topology

import (
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// HierarchyPolicy is fixed for the root publish builder and inherited by every implemented builder
type HierarchyPolicy int

const (
	// FlattenHierarchy all message types of a hierarchy share one exchange
	FlattenHierarchy HierarchyPolicy = iota
	// MaintainHierarchy the exchange of a derived type is bound from the exchange of its base type
	MaintainHierarchy
)

func (p HierarchyPolicy) String() string {
	switch p {
	case FlattenHierarchy:
		return "flatten"
	case MaintainHierarchy:
		return "maintain"
	default:
		return "unknown"
	}
}

// PublishBuilder holds the exchange a message type is published to.
// Declarations are forwarded to the Builder shared by the whole chain.
type PublishBuilder struct {
	*Builder

	policy   HierarchyPolicy
	parent   *PublishBuilder
	exchange ExchangeHandle
}

func NewPublishBuilder(policy HierarchyPolicy, opts ...BuilderOption) *PublishBuilder {
	return &PublishBuilder{
		Builder: NewBuilder(opts...),
		policy:  policy,
	}
}

func (p *PublishBuilder) Policy() HierarchyPolicy {
	return p.policy
}

// Exchange returns a zero handle until SetExchange is called
func (p *PublishBuilder) Exchange() ExchangeHandle {
	return p.exchange
}

// SetExchange
// Under MaintainHierarchy binds the parent exchange to the new one
// if the parent exchange is already set at this moment.
// A parent exchange set later is never bound retroactively.
func (p *PublishBuilder) SetExchange(exchange ExchangeHandle) error {
	if !exchange.IsZero() {
		_, err := p.Builder.exchange(exchange)
		if err != nil {
			return errors.WithMessage(err, "set exchange")
		}
	}

	if p.parent != nil && !p.parent.exchange.IsZero() && !exchange.IsZero() {
		_, err := p.BindExchange(p.parent.exchange, exchange, "", amqp.Table{})
		if err != nil {
			return errors.WithMessage(err, "bind implemented exchange")
		}
	}

	p.exchange = exchange
	return nil
}

// CreateImplementedBuilder
// Returns the receiver itself under FlattenHierarchy,
// otherwise a new builder whose parent is the receiver.
func (p *PublishBuilder) CreateImplementedBuilder() *PublishBuilder {
	if p.policy != MaintainHierarchy {
		return p
	}
	return &PublishBuilder{
		Builder: p.Builder,
		policy:  p.policy,
		parent:  p,
	}
}

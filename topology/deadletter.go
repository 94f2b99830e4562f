package topology

import (
	"fmt"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DLXName   = "default-dead-letter"
	DLQSuffix = "DLQ"

	rabbitMqDlxArg           = "x-dead-letter-exchange"
	rabbitMqDlqRoutingKeyArg = "x-dead-letter-routing-key"
)

func DeadLetterQueueName(queueName string) string {
	return fmt.Sprintf("%s.%s", queueName, DLQSuffix)
}

// DeclareDeadLetter
// Declares the shared dead letter exchange and the dead letter queue of queueName
// Returns arguments which must be put on the queueName declaration
func DeclareDeadLetter(b TopologyBuilder, queueName string) (amqp.Table, error) {
	dlx, err := b.DeclareExchange(DLXName, amqp.ExchangeDirect, true, false, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "declare dead letter exchange")
	}

	dlqName := DeadLetterQueueName(queueName)
	dlq, err := b.DeclareQueue(dlqName, true, false, false, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "declare dead letter queue '%s'", dlqName)
	}

	_, err = b.BindQueue(dlx, dlq, queueName, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "bind dead letter queue '%s'", dlqName)
	}

	return DeadLetterArgs(queueName), nil
}

// DeadLetterArgs routes rejected messages of queueName to its dead letter queue
func DeadLetterArgs(queueName string) amqp.Table {
	return amqp.Table{
		rabbitMqDlxArg:           DLXName,
		rabbitMqDlqRoutingKeyArg: queueName,
	}
}

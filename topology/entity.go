package topology

import (
	"fmt"
	"sort"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange struct {
	Id         int64
	Name       string
	Type       string
	Durable    bool
	AutoDelete bool
	Args       amqp.Table
}

func (e Exchange) String() string {
	return describe(
		fmt.Sprintf("name: %s", e.Name),
		fmt.Sprintf("type: %s", e.Type),
		flag(e.Durable, "durable"),
		flag(e.AutoDelete, "auto-delete"),
		describeArgs(e.Args),
	)
}

func (e *Exchange) identity() string {
	return fmt.Sprintf("%q|%q|%t|%t|%s", e.Name, e.Type, e.Durable, e.AutoDelete, argsIdentity(e.Args))
}

func (e *Exchange) entityId() int64 {
	return e.Id
}

func (e *Exchange) setId(id int64) {
	e.Id = id
}

func (e *Exchange) entityName() string {
	return e.Name
}

func (e *Exchange) kind() string {
	return "exchange"
}

func (e *Exchange) mismatch(other *Exchange) string {
	switch {
	case e.Type != other.Type:
		return fmt.Sprintf("type '%s' != '%s'", e.Type, other.Type)
	case e.Durable != other.Durable:
		return fmt.Sprintf("durable %t != %t", e.Durable, other.Durable)
	case e.AutoDelete != other.AutoDelete:
		return fmt.Sprintf("autoDelete %t != %t", e.AutoDelete, other.AutoDelete)
	default:
		return fmt.Sprintf("arguments {%s} != {%s}", describeTypedArgs(e.Args), describeTypedArgs(other.Args))
	}
}

func (e Exchange) clone() Exchange {
	e.Args = cloneTable(e.Args)
	return e
}

type Queue struct {
	Id         int64
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	Args       amqp.Table
}

func (q Queue) String() string {
	return describe(
		fmt.Sprintf("name: %s", q.Name),
		flag(q.Durable, "durable"),
		flag(q.AutoDelete, "auto-delete"),
		flag(q.Exclusive, "exclusive"),
		describeArgs(q.Args),
	)
}

func (q *Queue) identity() string {
	return fmt.Sprintf("%q|%t|%t|%t|%s", q.Name, q.Durable, q.AutoDelete, q.Exclusive, argsIdentity(q.Args))
}

func (q *Queue) entityId() int64 {
	return q.Id
}

func (q *Queue) setId(id int64) {
	q.Id = id
}

func (q *Queue) entityName() string {
	return q.Name
}

func (q *Queue) kind() string {
	return "queue"
}

func (q *Queue) mismatch(other *Queue) string {
	switch {
	case q.Durable != other.Durable:
		return fmt.Sprintf("durable %t != %t", q.Durable, other.Durable)
	case q.AutoDelete != other.AutoDelete:
		return fmt.Sprintf("autoDelete %t != %t", q.AutoDelete, other.AutoDelete)
	case q.Exclusive != other.Exclusive:
		return fmt.Sprintf("exclusive %t != %t", q.Exclusive, other.Exclusive)
	default:
		return fmt.Sprintf("arguments {%s} != {%s}", describeTypedArgs(q.Args), describeTypedArgs(other.Args))
	}
}

func (q Queue) clone() Queue {
	q.Args = cloneTable(q.Args)
	return q
}

// argsIdentity renders the table independently of key order.
// Value types are part of the identity, so int32(1) and int64(1) differ.
func argsIdentity(args amqp.Table) string {
	keys := sortedKeys(args)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%q=%s", key, valueIdentity(args[key])))
	}
	return strings.Join(parts, ",")
}

// valueIdentity quotes every scalar, so separators inside values never form a key of another table
func valueIdentity(value any) string {
	switch v := value.(type) {
	case amqp.Table:
		return fmt.Sprintf("{%s}", argsIdentity(v))
	case map[string]any:
		return fmt.Sprintf("{%s}", argsIdentity(v))
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, valueIdentity(item))
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ","))
	case []byte:
		return fmt.Sprintf("[]byte:%q", v)
	default:
		return fmt.Sprintf("%T:%q", v, fmt.Sprint(v))
	}
}

func describeArgs(args amqp.Table) string {
	keys := sortedKeys(args)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", key, args[key]))
	}
	return strings.Join(parts, ", ")
}

// describeTypedArgs is describeArgs with value types, mismatches may differ only by type
func describeTypedArgs(args amqp.Table) string {
	keys := sortedKeys(args)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %T(%v)", key, args[key], args[key]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(args amqp.Table) []string {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// cloneTable copies nested tables, field arrays and byte slices, never returns nil
func cloneTable(args amqp.Table) amqp.Table {
	result := make(amqp.Table, len(args))
	for key, value := range args {
		result[key] = cloneValue(value)
	}
	return result
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case amqp.Table:
		return cloneTable(v)
	case map[string]any:
		return map[string]any(cloneTable(v))
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = cloneValue(item)
		}
		return result
	case []byte:
		return append([]byte{}, v...)
	default:
		return v
	}
}

func flag(value bool, name string) string {
	if value {
		return name
	}
	return ""
}

func describe(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

package receive

import (
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	ContentTypeJson = "application/json"
)

var (
	ErrUnknownMessageType     = errors.New("unknown message type")
	ErrUnsupportedContentType = errors.New("unsupported content type")

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// JSONDeserializer resolves a message type by the amqp type property
type JSONDeserializer struct {
	types map[string]reflect.Type
}

func NewJSONDeserializer() *JSONDeserializer {
	return &JSONDeserializer{
		types: make(map[string]reflect.Type),
	}
}

// Register binds messageType to T, Deserialize returns *T
func Register[T any](d *JSONDeserializer, messageType string) {
	d.types[messageType] = reflect.TypeOf((*T)(nil)).Elem()
}

func (d *JSONDeserializer) Deserialize(delivery *Delivery) (any, error) {
	source := delivery.Source()
	if source.ContentType != "" && source.ContentType != ContentTypeJson {
		return nil, errors.WithMessagef(ErrUnsupportedContentType, "'%s'", source.ContentType)
	}

	typ, ok := d.types[source.Type]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownMessageType, "'%s'", source.Type)
	}

	msg := reflect.New(typ).Interface()
	err := json.Unmarshal(source.Body, msg)
	if err != nil {
		return nil, errors.WithMessagef(err, "unmarshal '%s'", source.Type)
	}
	return msg, nil
}

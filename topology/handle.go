package topology

import (
	"github.com/google/uuid"
)

// handle is an opaque reference scoped to the builder which produced it
type handle struct {
	scope uuid.UUID
	id    int64
}

func (h handle) Id() int64 {
	return h.id
}

// IsZero reports an unset handle
func (h handle) IsZero() bool {
	return h.id == 0
}

type ExchangeHandle struct {
	handle
}

type QueueHandle struct {
	handle
}

type ExchangeBindingHandle struct {
	handle
}

type QueueBindingHandle struct {
	handle
}

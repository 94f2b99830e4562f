package topology

import (
	"github.com/pkg/errors"
)

var (
	// ErrNamingConflict is returned when a name is reused with different attributes
	ErrNamingConflict = errors.New("naming conflict")
	// ErrInvalidTopology is returned for handles not owned by the builder or used after Discard
	ErrInvalidTopology = errors.New("invalid topology")
)

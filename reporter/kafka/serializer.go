package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/aalemi-dev/apm-lab/tracer"
)

// Serializer turns an event into a message value.
type Serializer interface {
	Serialize(ev tracer.Event) ([]byte, error)
}

// JSONSerializer encodes events with encoding/json. It is the default.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(ev tracer.Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("JSONSerializer: failed to serialize: %w", err)
	}
	return b, nil
}

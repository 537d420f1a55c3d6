package senders

import (
	"context"
	"fmt"

	"github.com/signalhub-dev/signalhub/internal/models"
	"gorm.io/datatypes"
)

// Sender delivers one event to one configured destination.
type Sender interface {
	Kind() string
	Send(ctx context.Context, config datatypes.JSON, event models.Event) error
}

// Registry holds the sender for each channel kind.
type Registry struct {
	senders map[string]Sender
}

func NewRegistry(list ...Sender) *Registry {
	registry := &Registry{senders: make(map[string]Sender)}

	for _, sender := range list {
		registry.senders[sender.Kind()] = sender
	}

	return registry
}

func (r *Registry) Get(kind string) (Sender, error) {
	sender, ok := r.senders[kind]

	if !ok {
		return nil, fmt.Errorf("no sender registered for channel kind: %s", kind)
	}

	return sender, nil
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/loom-field/api/internal/services"
)

// PubSubEventPublisher publishes catalog transition events to a Pub/Sub topic.
type PubSubEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubEventPublisher constructs a Pub/Sub backed catalog event publisher.
func NewPubSubEventPublisher(topic *pubsub.Topic) (*PubSubEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub event publisher: topic is required")
	}
	return &PubSubEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

type catalogEventMessage struct {
	Type       string         `json:"type"`
	EntityRef  string         `json:"entityRef"`
	OccurredAt time.Time      `json:"occurredAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// PublishCatalogEvent enqueues the event on the configured topic.
func (p *PubSubEventPublisher) PublishCatalogEvent(ctx context.Context, event services.CatalogEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub event publisher: not initialised")
	}

	data, err := p.marshal(catalogEventMessage{
		Type:       event.Type,
		EntityRef:  event.EntityRef,
		OccurredAt: event.OccurredAt,
		Metadata:   event.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal catalog event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "eventType", event.Type)
	setAttr(attrs, "entityRef", event.EntityRef)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish catalog event: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

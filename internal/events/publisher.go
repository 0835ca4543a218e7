// Package events publishes operator actions taken through the dashboard.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Type string

const (
	DeploymentCreated   Type = "deployment.created"
	RollbackRequested   Type = "rollback.requested"
	BundleUploaded      Type = "bundle.uploaded"
	DeviceConfigUpdated Type = "device_config.updated"
)

type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(eventType Type, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Transport is the broker connection a MQTTPublisher writes to.
type Transport interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher writes events as JSON to "<topic>/<event type>".
type MQTTPublisher struct {
	transport Transport
	topic     string
	qos       byte
	log       *zap.Logger
}

func NewMQTTPublisher(transport Transport, topic string, qos byte, log *zap.Logger) *MQTTPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &MQTTPublisher{transport: transport, topic: topic, qos: qos, log: log}
}

func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}

	topic := fmt.Sprintf("%s/%s", p.topic, event.Type)
	if err := p.transport.Publish(topic, p.qos, false, payload); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}

	p.log.Debug("Published operator event",
		zap.String("topic", topic),
		zap.String("event_id", event.ID),
	)
	return nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

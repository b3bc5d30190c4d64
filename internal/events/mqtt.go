package events

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/mqtt"
)

// MQTTClient is the publishing half of mqtt.Client. PublishJSON encodes v
// and sends it at the client's configured QoS.
type MQTTClient interface {
	PublishJSON(topic string, v any, retained bool) error
}

var _ MQTTClient = (*mqtt.Client)(nil)

// MQTTPublisher sends each event to the unit's event topic and, when a state
// source is set, refreshes the retained state snapshot afterwards.
type MQTTPublisher struct {
	client MQTTClient
	topics mqtt.Topics
	state  func() any
}

// NewMQTTPublisher returns a publisher for unitID. state may be nil.
func NewMQTTPublisher(client MQTTClient, unitID string, state func() any) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		topics: mqtt.Topics{UnitID: unitID},
		state:  state,
	}
}

// Publish sends ev, then the state snapshot.
func (p *MQTTPublisher) Publish(_ context.Context, ev Event) error {
	if err := p.client.PublishJSON(p.topics.Event(), ev, false); err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Type, err)
	}
	return p.PublishState()
}

// PublishState sends the retained snapshot. It is a no-op without a state
// source.
func (p *MQTTPublisher) PublishState() error {
	if p.state == nil {
		return nil
	}
	if err := p.client.PublishJSON(p.topics.State(), p.state(), true); err != nil {
		return fmt.Errorf("publishing state: %w", err)
	}
	return nil
}

package nexusbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hephaestus-app/nexus-gateway/nexus-bridge/broker"
)

// Publisher publishes event envelopes to recipient topics. The sibling REST
// services are the usual producers; the gateway keeps a publisher for tooling
// and tests.
type Publisher struct {
	broker broker.Broker
}

func NewPublisher(b broker.Broker) *Publisher {
	return &Publisher{broker: b}
}

// Send wraps payload in an envelope of the given type and publishes it to the
// recipient's topic.
func (p *Publisher) Send(ctx context.Context, recipientUserID, eventType string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	data, err := json.Marshal(Envelope{
		Type:    eventType,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("marshalling envelope: %w", err)
	}

	return p.broker.Publish(ctx, TopicName(recipientUserID), data)
}

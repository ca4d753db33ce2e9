package broker

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

// PubSub adapts a Google Cloud Pub/Sub client to the Broker interface.
type PubSub struct {
	client *pubsub.Client
}

func NewPubSub(ctx context.Context, projectID string) (*PubSub, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("connecting to pub/sub project %v: %w", projectID, err)
	}
	return &PubSub{client: client}, nil
}

func (p *PubSub) CreateTopic(ctx context.Context, name string) error {
	_, err := p.client.CreateTopic(ctx, name)
	return err
}

func (p *PubSub) CreateSubscription(ctx context.Context, name, topic string, ackDeadline time.Duration) (Subscription, error) {
	sub, err := p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:       p.client.Topic(topic),
		AckDeadline: ackDeadline,
	})
	if err != nil {
		return nil, err
	}
	return &pubsubSubscription{sub: sub}, nil
}

func (p *PubSub) Subscription(name string) Subscription {
	return &pubsubSubscription{sub: p.client.Subscription(name)}
}

func (p *PubSub) Publish(ctx context.Context, topic string, data []byte) error {
	result := p.client.Topic(topic).Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing to topic %v: %w", topic, err)
	}
	return nil
}

func (p *PubSub) Close() error {
	return p.client.Close()
}

type pubsubSubscription struct {
	sub *pubsub.Subscription
}

func (s *pubsubSubscription) Receive(ctx context.Context, handler func(context.Context, Message)) error {
	return s.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		handler(ctx, &pubsubMessage{m: m})
	})
}

type pubsubMessage struct {
	m *pubsub.Message
}

func (m *pubsubMessage) Data() []byte { return m.m.Data }
func (m *pubsubMessage) Ack()         { m.m.Ack() }
func (m *pubsubMessage) Nack()        { m.m.Nack() }

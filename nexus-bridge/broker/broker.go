// Package broker wraps the remote durable pub/sub system behind narrow
// interfaces so the bridge can be exercised without a live project.
package broker

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Message is a single delivery from the broker. Exactly one of Ack or Nack
// must be called once processing is complete.
type Message interface {
	Data() []byte
	Ack()
	Nack()
}

// Subscription is a durable per-consumer read cursor on a topic. Receive
// blocks until ctx is cancelled, invoking handler for each delivery.
type Subscription interface {
	Receive(ctx context.Context, handler func(context.Context, Message)) error
}

// Broker provisions topics and subscriptions and publishes payloads.
// Subscription returns a handle to an already-created subscription, for
// attaching a receiver when creation reports an idempotent conflict.
type Broker interface {
	CreateTopic(ctx context.Context, name string) error
	CreateSubscription(ctx context.Context, name, topic string, ackDeadline time.Duration) (Subscription, error)
	Subscription(name string) Subscription
	Publish(ctx context.Context, topic string, data []byte) error
}

// IsAlreadyExists reports whether err is the broker's idempotent-conflict
// error for a topic or subscription that was created by a concurrent caller.
func IsAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

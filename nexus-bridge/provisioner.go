package nexusbridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hephaestus-app/nexus-gateway/nexus-bridge/broker"
)

// DefaultAckDeadline bounds how long the router may hold one delivery before
// the broker considers it undelivered.
const DefaultAckDeadline = 30 * time.Second

// MessageHandler receives each broker delivery. Implemented by Router.
type MessageHandler interface {
	OnMessage(ctx context.Context, msg broker.Message)
}

// NewInstanceID generates the identifier that distinguishes this gateway
// instance's broker subscriptions. Generated once per process lifetime.
func NewInstanceID() string {
	return uuid.NewString()
}

// Provisioner idempotently ensures a broker topic and a per-instance broker
// subscription exist for a recipient user, and runs a receive loop per
// subscription that hands deliveries to the message handler.
//
// Deduplication is in-memory and per-process: the subscription name is
// reserved before the broker call completes, so concurrent callers for the
// same user converge on a single provisioning attempt. A second caller
// arriving mid-provision returns early without waiting. This mirrors the
// behavior connections rely on: multiple tabs for one user share one
// subscription.
type Provisioner struct {
	broker      broker.Broker
	handler     MessageHandler
	instanceID  string
	ackDeadline time.Duration
	logger      zerolog.Logger

	mu          sync.Mutex
	provisioned map[string]struct{}

	receiveCtx    context.Context
	receiveCancel context.CancelFunc
	receivers     sync.WaitGroup
}

func NewProvisioner(b broker.Broker, handler MessageHandler, instanceID string, logger zerolog.Logger) *Provisioner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Provisioner{
		broker:        b,
		handler:       handler,
		instanceID:    instanceID,
		ackDeadline:   DefaultAckDeadline,
		logger:        logger,
		provisioned:   map[string]struct{}{},
		receiveCtx:    ctx,
		receiveCancel: cancel,
	}
}

// EnsureUserSubscription lazily creates the user's topic and this instance's
// subscription on it. Idempotent and safe under concurrent invocation from
// many connections authenticating at once. Broker failures propagate to the
// caller; retry policy belongs to the connection layer.
func (p *Provisioner) EnsureUserSubscription(ctx context.Context, userID string) error {
	topic := TopicName(userID)
	name := SubscriptionName(topic, p.instanceID)

	p.mu.Lock()
	if _, ok := p.provisioned[name]; ok {
		p.mu.Unlock()
		return nil
	}
	// Reserve before the broker round trip so concurrent callers for the
	// same user return early instead of racing a second create.
	p.provisioned[name] = struct{}{}
	p.mu.Unlock()

	if err := p.provision(ctx, topic, name); err != nil {
		p.mu.Lock()
		delete(p.provisioned, name)
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *Provisioner) provision(ctx context.Context, topic, name string) error {
	if err := p.broker.CreateTopic(ctx, topic); err != nil && !broker.IsAlreadyExists(err) {
		return fmt.Errorf("creating topic %v: %w", topic, err)
	}

	sub, err := p.broker.CreateSubscription(ctx, name, topic, p.ackDeadline)
	if err != nil {
		if !broker.IsAlreadyExists(err) {
			return fmt.Errorf("creating subscription %v: %w", name, err)
		}
		// A previous attempt reached the broker without recording success
		// locally (e.g. a transient error after the create landed). The
		// subscription exists but has no receiver yet; attach to it.
		p.logger.Debug().Str("subscription", name).Msg("subscription already exists, attaching")
		sub = p.broker.Subscription(name)
	}

	p.receivers.Add(1)
	go func() {
		defer p.receivers.Done()
		if err := sub.Receive(p.receiveCtx, p.handler.OnMessage); err != nil && p.receiveCtx.Err() == nil {
			p.logger.Error().Err(err).Str("subscription", name).Msg("receive loop terminated")
		}
	}()

	p.logger.Info().
		Str("topic", topic).
		Str("subscription", name).
		Msg("subscription provisioned")
	return nil
}

// Provisioned reports whether this instance already holds a subscription for
// the user.
func (p *Provisioner) Provisioned(userID string) bool {
	topic := TopicName(userID)
	name := SubscriptionName(topic, p.instanceID)

	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.provisioned[name]
	return ok
}

// Close stops all receive loops and waits for them to drain. The broker
// subscriptions themselves are left in place; they outlive the process only
// until the broker expires them.
func (p *Provisioner) Close() {
	p.receiveCancel()
	p.receivers.Wait()
}

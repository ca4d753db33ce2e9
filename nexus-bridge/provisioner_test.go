package nexusbridge

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tj/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hephaestus-app/nexus-gateway/nexus-bridge/broker"
)

// fakeBroker is an in-memory Broker that mimics the AlreadyExists semantics
// of the real one and delivers published messages to topic subscriptions.
type fakeBroker struct {
	mu       sync.Mutex
	topics   map[string]bool
	subs     map[string]*fakeSub
	byTopic  map[string][]*fakeSub
	topicErr error
	subErr   error

	createTopicCalls int
	createSubCalls   int

	published []*fakeMsg
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		topics:  map[string]bool{},
		subs:    map[string]*fakeSub{},
		byTopic: map[string][]*fakeSub{},
	}
}

func (b *fakeBroker) CreateTopic(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createTopicCalls++
	if b.topicErr != nil {
		return b.topicErr
	}
	if b.topics[name] {
		return status.Error(codes.AlreadyExists, "topic exists")
	}
	b.topics[name] = true
	return nil
}

func (b *fakeBroker) CreateSubscription(_ context.Context, name, topic string, _ time.Duration) (broker.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createSubCalls++
	if b.subErr != nil {
		return nil, b.subErr
	}
	if _, ok := b.subs[name]; ok {
		return nil, status.Error(codes.AlreadyExists, "subscription exists")
	}
	sub := &fakeSub{ch: make(chan *fakeMsg, 16)}
	b.subs[name] = sub
	b.byTopic[topic] = append(b.byTopic[topic], sub)
	return sub, nil
}

func (b *fakeBroker) Subscription(name string) broker.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[name]
}

func (b *fakeBroker) Publish(_ context.Context, topic string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg := &fakeMsg{data: data}
	b.published = append(b.published, msg)
	for _, sub := range b.byTopic[topic] {
		sub.ch <- msg
	}
	return nil
}

type fakeSub struct {
	ch chan *fakeMsg
}

func (s *fakeSub) Receive(ctx context.Context, handler func(context.Context, broker.Message)) error {
	for {
		select {
		case msg := <-s.ch:
			handler(ctx, msg)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type fakeMsg struct {
	data  []byte
	acks  int32
	nacks int32
}

func (m *fakeMsg) Data() []byte { return m.data }
func (m *fakeMsg) Ack()         { atomic.AddInt32(&m.acks, 1) }
func (m *fakeMsg) Nack()        { atomic.AddInt32(&m.nacks, 1) }

type nopHandler struct{}

func (nopHandler) OnMessage(_ context.Context, msg broker.Message) { msg.Ack() }

func TestNaming(t *testing.T) {
	assert.Equal(t, "u-alice", TopicName("alice"))
	assert.Equal(t, "u-alice-i1", SubscriptionName(TopicName("alice"), "i1"))
}

func TestProvisioner(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("provisions topic and subscription once", func(t *testing.T) {
		b := newFakeBroker()
		p := NewProvisioner(b, nopHandler{}, "i1", logger)
		defer p.Close()

		assert.NoError(t, p.EnsureUserSubscription(ctx, "alice"))
		assert.NoError(t, p.EnsureUserSubscription(ctx, "alice"))
		assert.True(t, p.Provisioned("alice"))

		assert.Equal(t, 1, b.createTopicCalls)
		assert.Equal(t, 1, b.createSubCalls)
	})

	t.Run("concurrent callers converge on one attempt", func(t *testing.T) {
		b := newFakeBroker()
		p := NewProvisioner(b, nopHandler{}, "i1", logger)
		defer p.Close()

		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, p.EnsureUserSubscription(ctx, "alice"))
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, b.createTopicCalls)
		assert.Equal(t, 1, b.createSubCalls)
	})

	t.Run("instances do not share subscriptions", func(t *testing.T) {
		b := newFakeBroker()
		p1 := NewProvisioner(b, nopHandler{}, "i1", logger)
		defer p1.Close()
		p2 := NewProvisioner(b, nopHandler{}, "i2", logger)
		defer p2.Close()

		assert.NoError(t, p1.EnsureUserSubscription(ctx, "alice"))
		assert.NoError(t, p2.EnsureUserSubscription(ctx, "alice"))

		assert.Len(t, b.subs, 2)
		assert.Contains(t, b.subs, "u-alice-i1")
		assert.Contains(t, b.subs, "u-alice-i2")
	})

	t.Run("pre-existing broker resources are tolerated and receive deliveries", func(t *testing.T) {
		b := newFakeBroker()
		b.topics["u-alice"] = true
		existing := &fakeSub{ch: make(chan *fakeMsg, 16)}
		b.subs["u-alice-i1"] = existing
		b.byTopic["u-alice"] = []*fakeSub{existing}

		p := NewProvisioner(b, nopHandler{}, "i1", logger)
		defer p.Close()
		assert.NoError(t, p.EnsureUserSubscription(ctx, "alice"))
		assert.True(t, p.Provisioned("alice"))

		// A receiver must attach to the existing subscription, not just
		// tolerate the conflict.
		assert.NoError(t, b.Publish(ctx, TopicName("alice"), []byte(`{}`)))
		deadline := time.Now().Add(time.Second)
		for atomic.LoadInt32(&b.published[0].acks) == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		assert.EqualValues(t, 1, atomic.LoadInt32(&b.published[0].acks))
	})

	t.Run("broker failure releases the reservation", func(t *testing.T) {
		b := newFakeBroker()
		b.subErr = status.Error(codes.Unavailable, "broker down")

		p := NewProvisioner(b, nopHandler{}, "i1", logger)
		defer p.Close()

		assert.Error(t, p.EnsureUserSubscription(ctx, "alice"))
		assert.False(t, p.Provisioned("alice"))

		b.mu.Lock()
		b.subErr = nil
		b.mu.Unlock()
		assert.NoError(t, p.EnsureUserSubscription(ctx, "alice"))
		assert.True(t, p.Provisioned("alice"))
	})

	t.Run("receive loop hands deliveries to the handler", func(t *testing.T) {
		b := newFakeBroker()
		p := NewProvisioner(b, nopHandler{}, "i1", logger)
		defer p.Close()

		assert.NoError(t, p.EnsureUserSubscription(ctx, "alice"))
		assert.NoError(t, b.Publish(ctx, TopicName("alice"), []byte(`{}`)))

		deadline := time.Now().Add(time.Second)
		for atomic.LoadInt32(&b.published[0].acks) == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		assert.EqualValues(t, 1, atomic.LoadInt32(&b.published[0].acks))
	})
}

// Package hub provides the in-process publish/subscribe fan-out that feeds
// live websocket connections. It is not durable and not shared across gateway
// instances; each instance's hub is fed only by that instance's broker
// subscriptions.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-stream buffer size. A stream whose consumer falls
// this far behind starts losing events rather than blocking Publish.
const DefaultBuffer = 16

// Hub fans events out to zero or more streams per key.
type Hub struct {
	logger zerolog.Logger
	buffer int

	mu      sync.RWMutex
	streams map[string][]*Stream
	closed  bool
}

// Stream is one subscriber's view of a hub key. Read events from C until it
// is closed.
type Stream struct {
	C <-chan json.RawMessage

	hub  *Hub
	key  string
	ch   chan json.RawMessage
	once sync.Once
}

type Option func(*Hub)

// WithBuffer overrides the per-stream buffer size.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func New(logger zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger:  logger,
		buffer:  DefaultBuffer,
		streams: map[string][]*Stream{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish delivers payload to every stream subscribed to key. Publish never
// blocks: a stream whose buffer is full loses the event.
func (h *Hub) Publish(key string, payload json.RawMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for _, stream := range h.streams[key] {
		select {
		case stream.ch <- payload:
		default:
			h.logger.Warn().
				Str("key", key).
				Msg("stream buffer full, dropping event")
		}
	}
}

// Subscribe registers a new stream for key. The caller owns the stream and
// must Close it when done.
func (h *Hub) Subscribe(key string) *Stream {
	ch := make(chan json.RawMessage, h.buffer)
	stream := &Stream{
		C:   ch,
		hub: h,
		key: key,
		ch:  ch,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return stream
	}
	h.streams[key] = append(h.streams[key], stream)
	return stream
}

// Close releases the stream. Safe to call more than once.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// StreamCount reports how many streams are subscribed to key.
func (h *Hub) StreamCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[key])
}

func (h *Hub) remove(target *Stream) {
	h.mu.Lock()
	defer h.mu.Unlock()

	streams := h.streams[target.key]
	for i, stream := range streams {
		if stream == target {
			h.streams[target.key] = append(streams[:i], streams[i+1:]...)
			close(target.ch)
			break
		}
	}
	if len(h.streams[target.key]) == 0 {
		delete(h.streams, target.key)
	}
}

// Close shuts the hub down and closes every stream. Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, streams := range h.streams {
		for _, stream := range streams {
			close(stream.ch)
		}
	}
	h.streams = map[string][]*Stream{}
}

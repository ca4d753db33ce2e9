package nexusbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tj/assert"

	nexushydrate "github.com/hephaestus-app/nexus-gateway/nexus-hydrate"
	"github.com/hephaestus-app/nexus-gateway/nexus-ws/hub"
)

// fakeSigner issues deterministic urls so hydration is observable.
type fakeSigner struct{}

func (fakeSigner) SignedURL(_ context.Context, bucket, path string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%v/%v", bucket, path), nil
}

func newTestRouter(t *testing.T) (*Router, *hub.Hub) {
	t.Helper()
	logger := zerolog.Nop()
	hydrator := nexushydrate.New(fakeSigner{}, nexushydrate.NewCache(), logger)
	h := hub.New(logger)
	t.Cleanup(h.Close)
	return NewRouter(h, hydrator, logger), h
}

func envelope(t *testing.T, eventType string, payload interface{}) *fakeMsg {
	t.Helper()
	payloadBytes, err := json.Marshal(payload)
	assert.NoError(t, err)
	data, err := json.Marshal(Envelope{Type: eventType, Payload: payloadBytes})
	assert.NoError(t, err)
	return &fakeMsg{data: data}
}

func TestRouter(t *testing.T) {
	ctx := context.Background()

	t.Run("new-message is hydrated onto MESSAGE_ADDED", func(t *testing.T) {
		router, h := newTestRouter(t)
		stream := h.Subscribe(KeyMessageAdded)

		msg := envelope(t, EventNewMessage, map[string]interface{}{
			"id":                  "m1",
			"channelId":           "c1",
			"attachmentFilePaths": []string{"a.png", "b.png"},
		})
		router.OnMessage(ctx, msg)

		var event map[string]interface{}
		assert.NoError(t, json.Unmarshal(<-stream.C, &event))
		assert.Equal(t, "m1", event["id"])
		assert.Equal(t, "c1", event["channelId"])
		assert.Nil(t, event["attachmentFilePaths"])
		assert.Equal(t, []interface{}{
			"https://signed.example/message-attachments/a.png",
			"https://signed.example/message-attachments/b.png",
		}, event["attachmentUrls"])
		assert.EqualValues(t, 1, atomic.LoadInt32(&msg.acks))
	})

	t.Run("new-dm is hydrated onto DM_ADDED from the dm bucket", func(t *testing.T) {
		router, h := newTestRouter(t)
		stream := h.Subscribe(KeyDmAdded)

		msg := envelope(t, EventNewDm, map[string]interface{}{
			"id":                  "d1",
			"conversationId":      "conv1",
			"attachmentFilePaths": []string{"pic.jpg"},
		})
		router.OnMessage(ctx, msg)

		var event map[string]interface{}
		assert.NoError(t, json.Unmarshal(<-stream.C, &event))
		assert.Equal(t, []interface{}{
			"https://signed.example/dm-attachments/pic.jpg",
		}, event["attachmentUrls"])
		assert.EqualValues(t, 1, atomic.LoadInt32(&msg.acks))
	})

	t.Run("friend-status-changed passes through unhydrated", func(t *testing.T) {
		router, h := newTestRouter(t)
		stream := h.Subscribe(KeyFriendStatusChanged)

		msg := envelope(t, EventFriendStatusChanged, map[string]interface{}{
			"friendUserId": "bob",
			"status":       "online",
		})
		router.OnMessage(ctx, msg)

		var event map[string]string
		assert.NoError(t, json.Unmarshal(<-stream.C, &event))
		assert.Equal(t, map[string]string{"friendUserId": "bob", "status": "online"}, event)
		assert.EqualValues(t, 1, atomic.LoadInt32(&msg.acks))
	})

	t.Run("message without attachments gains an empty url list", func(t *testing.T) {
		router, h := newTestRouter(t)
		stream := h.Subscribe(KeyMessageAdded)

		msg := envelope(t, EventNewMessage, map[string]interface{}{"id": "m2"})
		router.OnMessage(ctx, msg)

		var event map[string]interface{}
		assert.NoError(t, json.Unmarshal(<-stream.C, &event))
		assert.Equal(t, []interface{}{}, event["attachmentUrls"])
	})

	t.Run("unknown type is acked without publishing", func(t *testing.T) {
		router, h := newTestRouter(t)
		messageStream := h.Subscribe(KeyMessageAdded)
		dmStream := h.Subscribe(KeyDmAdded)
		friendStream := h.Subscribe(KeyFriendStatusChanged)

		msg := envelope(t, "group-renamed", map[string]string{"id": "g1"})
		router.OnMessage(ctx, msg)

		assert.Len(t, messageStream.C, 0)
		assert.Len(t, dmStream.C, 0)
		assert.Len(t, friendStream.C, 0)
		assert.EqualValues(t, 1, atomic.LoadInt32(&msg.acks))
		assert.EqualValues(t, 0, atomic.LoadInt32(&msg.nacks))
	})

	t.Run("unparseable envelope is acked without publishing", func(t *testing.T) {
		router, h := newTestRouter(t)
		stream := h.Subscribe(KeyMessageAdded)

		msg := &fakeMsg{data: []byte(`not json`)}
		router.OnMessage(ctx, msg)

		assert.Len(t, stream.C, 0)
		assert.EqualValues(t, 1, atomic.LoadInt32(&msg.acks))
	})
}

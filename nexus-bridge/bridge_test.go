package nexusbridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tj/assert"

	nexushydrate "github.com/hephaestus-app/nexus-gateway/nexus-hydrate"
	"github.com/hephaestus-app/nexus-gateway/nexus-ws/hub"
)

// Exercises the full path: publish to a user topic, receive on the instance's
// subscription, hydrate, fan out on the hub.
func TestBridgeEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	b := newFakeBroker()
	hydrator := nexushydrate.New(fakeSigner{}, nexushydrate.NewCache(), logger)
	eventHub := hub.New(logger)
	defer eventHub.Close()

	router := NewRouter(eventHub, hydrator, logger)
	provisioner := NewProvisioner(b, router, "i1", logger)
	defer provisioner.Close()

	assert.NoError(t, provisioner.EnsureUserSubscription(ctx, "alice"))
	stream := eventHub.Subscribe(KeyMessageAdded)
	defer stream.Close()

	publisher := NewPublisher(b)
	assert.NoError(t, publisher.Send(ctx, "alice", EventNewMessage, map[string]interface{}{
		"id":                  "m1",
		"channelId":           "c1",
		"senderUserId":        "bob",
		"content":             "hello",
		"attachmentFilePaths": []string{"photo.png"},
	}))

	select {
	case payload := <-stream.C:
		var event map[string]interface{}
		assert.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, "m1", event["id"])
		assert.Equal(t, "hello", event["content"])
		assert.Equal(t, []interface{}{
			"https://signed.example/message-attachments/photo.png",
		}, event["attachmentUrls"])
	case <-time.After(time.Second):
		t.Fatal("event never reached the hub")
	}

	// A topic for a user nobody on this instance subscribed to stays silent.
	assert.NoError(t, publisher.Send(ctx, "carol", EventNewMessage, map[string]string{"id": "m2"}))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, stream.C, 0)
}

// Package nexusbridge connects the durable per-user broker topics to this
// instance's in-process event hub. It provisions one broker subscription per
// (user topic, gateway instance), classifies inbound envelopes, hydrates
// attachment references, and republishes onto the local hub.
package nexusbridge

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire payload published to a recipient topic.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Known envelope types, produced by the sibling REST services.
const (
	EventNewMessage          = "new-message"
	EventNewDm               = "new-dm"
	EventFriendStatusChanged = "friend-status-changed"
)

// Hub keys the router publishes under. The websocket layer subscribes to
// these.
const (
	KeyMessageAdded        = "MESSAGE_ADDED"
	KeyDmAdded             = "DM_ADDED"
	KeyFriendStatusChanged = "FRIEND_STATUS_CHANGED"
)

// TopicName returns the broker topic for a recipient user. One topic per
// user, shared by every gateway instance.
func TopicName(userID string) string {
	return "u-" + userID
}

// SubscriptionName returns the broker subscription name for a (topic,
// instance) pair. Every gateway instance owns its own subscription per topic
// so broker fan-out reaches every instance, not one arbitrarily.
func SubscriptionName(topic, instanceID string) string {
	return fmt.Sprintf("%v-%v", topic, instanceID)
}

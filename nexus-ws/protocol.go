package nexusws

import (
	"encoding/json"
	"fmt"
)

// graphql-ws protocol message types
// See: https://github.com/enisdenjo/graphql-ws/blob/master/PROTOCOL.md
const (
	MsgConnectionInit = "connection_init"
	MsgConnectionAck  = "connection_ack"
	MsgPing           = "ping"
	MsgPong           = "pong"
	MsgSubscribe      = "subscribe"
	MsgNext           = "next"
	MsgError          = "error"
	MsgComplete       = "complete"
)

// Close codes defined by the graphql-ws protocol.
const (
	CloseBadRequest          = 4400
	CloseUnauthorized        = 4401
	CloseSubscriberExists    = 4409
	CloseTooManyInitRequests = 4429
	CloseInternalServerError = 4500
)

// Message is a message in the graphql-ws protocol.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InitPayload is the payload of a "connection_init" message.
type InitPayload struct {
	Token string `json:"token"`
}

// SubscribePayload is the payload of a "subscribe" message.
type SubscribePayload struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// ParseMessage parses a graphql-ws protocol message.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid graphql-ws message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("missing message type")
	}
	return &msg, nil
}

// AckMessage returns a connection_ack message.
func AckMessage() []byte {
	b, _ := json.Marshal(Message{Type: MsgConnectionAck})
	return b
}

// PongMessage returns a pong message.
func PongMessage() []byte {
	b, _ := json.Marshal(Message{Type: MsgPong})
	return b
}

// NextMessage returns a "next" message carrying one event for the given
// client subscription.
func NextMessage(id string, payload json.RawMessage) []byte {
	b, _ := json.Marshal(Message{
		ID:      id,
		Type:    MsgNext,
		Payload: payload,
	})
	return b
}

// ErrorMessage returns an "error" message for the given client subscription.
func ErrorMessage(id string, errMsg string) []byte {
	payload, _ := json.Marshal([]map[string]string{{"message": errMsg}})
	b, _ := json.Marshal(Message{
		ID:      id,
		Type:    MsgError,
		Payload: payload,
	})
	return b
}

// CompleteMessage returns a "complete" message for the given client
// subscription.
func CompleteMessage(id string) []byte {
	b, _ := json.Marshal(Message{ID: id, Type: MsgComplete})
	return b
}

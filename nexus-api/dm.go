package nexusapi

import (
	"context"
	"fmt"
)

// DirectMessaging fetches conversations and messages from the direct
// messaging api service.
type DirectMessaging struct {
	*Client
}

func NewDirectMessaging(baseURL string) (*DirectMessaging, error) {
	client, err := newClient(baseURL)
	if err != nil {
		return nil, err
	}
	return &DirectMessaging{Client: client}, nil
}

func (c *DirectMessaging) GetConversations(ctx context.Context, userID string) ([]Conversation, error) {
	var conversations []Conversation
	if err := c.get(ctx, fmt.Sprintf("/users/%v/conversations", userID), nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *DirectMessaging) GetConversationMessages(ctx context.Context, conversationID string, offset, limit int) ([]DirectMessage, error) {
	var messages []DirectMessage
	query := paging(offset, limit)
	if err := c.get(ctx, fmt.Sprintf("/conversations/%v/messages", conversationID), query, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

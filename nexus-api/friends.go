package nexusapi

import (
	"context"
	"fmt"
)

// Friends fetches friend lists from the friends api service.
type Friends struct {
	*Client
}

func NewFriends(baseURL string) (*Friends, error) {
	client, err := newClient(baseURL)
	if err != nil {
		return nil, err
	}
	return &Friends{Client: client}, nil
}

func (c *Friends) GetFriends(ctx context.Context, userID string) ([]Friend, error) {
	var friends []Friend
	if err := c.get(ctx, fmt.Sprintf("/friends/%v", userID), nil, &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

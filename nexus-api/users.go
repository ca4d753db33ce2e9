package nexusapi

import (
	"context"
	"fmt"
	"net/url"
)

// Users fetches user records from the user api service.
type Users struct {
	*Client
}

func NewUsers(baseURL string) (*Users, error) {
	client, err := newClient(baseURL)
	if err != nil {
		return nil, err
	}
	return &Users{Client: client}, nil
}

func (c *Users) GetUser(ctx context.Context, userID string) (User, error) {
	var user User
	if err := c.get(ctx, fmt.Sprintf("/users/%v", userID), nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Users) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	query := url.Values{"email": []string{email}}
	if err := c.get(ctx, "/users", query, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

package nexusapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Groups fetches group, channel, post and comment records from the group api
// service.
type Groups struct {
	*Client
}

func NewGroups(baseURL string) (*Groups, error) {
	client, err := newClient(baseURL)
	if err != nil {
		return nil, err
	}
	return &Groups{Client: client}, nil
}

func (c *Groups) GetGroup(ctx context.Context, id string) (Group, error) {
	var group Group
	if err := c.get(ctx, fmt.Sprintf("/groups/%v", id), nil, &group); err != nil {
		return Group{}, err
	}
	return group, nil
}

func (c *Groups) GetUserGroups(ctx context.Context, userID string) ([]Group, error) {
	var groups []Group
	if err := c.get(ctx, fmt.Sprintf("/users/%v/groups", userID), nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Groups) GetChannelMessages(ctx context.Context, channelID string, offset, limit int) ([]ChannelMessage, error) {
	var messages []ChannelMessage
	query := paging(offset, limit)
	if err := c.get(ctx, fmt.Sprintf("/channels/%v/messages", channelID), query, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Groups) GetPost(ctx context.Context, id string) (Post, error) {
	var post Post
	if err := c.get(ctx, fmt.Sprintf("/posts/%v", id), nil, &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

func (c *Groups) GetPostComments(ctx context.Context, postID, parentCommentID string, offset, limit int) ([]Comment, error) {
	var comments []Comment
	query := paging(offset, limit)
	if parentCommentID != "" {
		query.Set("parentCommentId", parentCommentID)
	}
	if err := c.get(ctx, fmt.Sprintf("/posts/%v/comments", postID), query, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func paging(offset, limit int) url.Values {
	return url.Values{
		"offset": []string{strconv.Itoa(offset)},
		"limit":  []string{strconv.Itoa(limit)},
	}
}

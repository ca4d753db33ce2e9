package main

import (
	"context"
	_ "embed"

	nexusapi "github.com/hephaestus-app/nexus-gateway/nexus-api"
	nexusgql "github.com/hephaestus-app/nexus-gateway/nexus-gql"
	nexushydrate "github.com/hephaestus-app/nexus-gateway/nexus-hydrate"
)

//go:embed schema.gql
var gatewaySchema string

const (
	defaultOffset = 0
	defaultLimit  = 50
)

// Resolver answers the gateway's read queries by delegating to the sibling
// api services and hydrating attachment paths into signed urls.
type Resolver struct {
	config   *nexusgql.BaseConfig
	users    *nexusapi.Users
	friends  *nexusapi.Friends
	groups   *nexusapi.Groups
	dm       *nexusapi.DirectMessaging
	hydrator *nexushydrate.Hydrator
}

func (r *Resolver) Schema() string {
	return nexusgql.MergeSchemas(gatewaySchema, nexusgql.Common)
}

func (r *Resolver) Config() *nexusgql.BaseConfig {
	return r.config
}

// Group carries a resolved avatar url in place of the storage path.
type Group struct {
	ID          string
	Name        string
	Description string
	AvatarURL   string
}

// ChannelMessage carries signed attachment urls in place of storage paths.
type ChannelMessage struct {
	ID             string
	ChannelID      string
	SenderUserID   string
	Content        string
	CreatedAt      string
	Edited         bool
	AttachmentURLs []string
}

type Post struct {
	ID             string
	ChannelID      string
	SenderUserID   string
	Content        string
	Upvotes        int32
	CommentsCount  int32
	CreatedAt      string
	AttachmentURLs []string
}

type Comment struct {
	ID              string
	PostID          string
	ParentCommentID string
	SenderUserID    string
	Content         string
	CreatedAt       string
	AttachmentURLs  []string
	Replies         []Comment
}

type DirectMessage struct {
	ID             string
	ConversationID string
	SenderUserID   string
	Content        string
	CreatedAt      string
	Edited         bool
	AttachmentURLs []string
}

func (r *Resolver) FetchUser(ctx context.Context, args struct{ UserID string }) (nexusapi.User, error) {
	return r.users.GetUser(ctx, args.UserID)
}

func (r *Resolver) GetFriends(ctx context.Context, args struct{ UserID string }) ([]nexusapi.Friend, error) {
	friends, err := r.friends.GetFriends(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []nexusapi.Friend{}
	}
	return friends, nil
}

func (r *Resolver) FetchGroup(ctx context.Context, args struct{ ID string }) (Group, error) {
	group, err := r.groups.GetGroup(ctx, args.ID)
	if err != nil {
		return Group{}, err
	}
	hydrated, _ := r.hydrateGroup(ctx, group)
	return hydrated, nil
}

func (r *Resolver) FetchUserGroups(ctx context.Context, args struct{ UserID string }) ([]Group, error) {
	groups, err := r.groups.GetUserGroups(ctx, args.UserID)
	if err != nil {
		return nil, err
	}

	// Groups without an avatar, or whose avatar cannot be signed, are
	// dropped rather than served with a broken image.
	hydrated := make([]Group, 0, len(groups))
	for _, group := range groups {
		out, ok := r.hydrateGroup(ctx, group)
		if !ok {
			continue
		}
		hydrated = append(hydrated, out)
	}
	return hydrated, nil
}

func (r *Resolver) hydrateGroup(ctx context.Context, group nexusapi.Group) (Group, bool) {
	out := Group{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
	}
	if group.AvatarFilePath == "" {
		return out, false
	}

	url, err := r.hydrator.SignedURL(ctx, nexushydrate.BucketGroupAvatars, group.AvatarFilePath)
	if err != nil {
		r.config.Logger.Warn().Err(err).Str("group", group.ID).Msg("failed to sign group avatar")
		return out, false
	}
	out.AvatarURL = url
	return out, true
}

func (r *Resolver) FetchChannelMessages(ctx context.Context, args struct {
	ChannelID string
	Offset    *int32
	Limit     *int32
}) ([]ChannelMessage, error) {
	offset, limit := page(args.Offset, args.Limit)
	messages, err := r.groups.GetChannelMessages(ctx, args.ChannelID, offset, limit)
	if err != nil {
		return nil, err
	}

	out := make([]ChannelMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ChannelMessage{
			ID:             m.ID,
			ChannelID:      m.ChannelID,
			SenderUserID:   m.SenderUserID,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
			Edited:         m.Edited,
			AttachmentURLs: r.hydrator.AttachmentURLs(ctx, nexushydrate.BucketMessageAttachments, m.AttachmentFilePaths),
		})
	}
	return out, nil
}

func (r *Resolver) FetchPost(ctx context.Context, args struct{ ID string }) (Post, error) {
	post, err := r.groups.GetPost(ctx, args.ID)
	if err != nil {
		return Post{}, err
	}
	return r.hydratePost(ctx, post), nil
}

func (r *Resolver) hydratePost(ctx context.Context, post nexusapi.Post) Post {
	return Post{
		ID:             post.ID,
		ChannelID:      post.ChannelID,
		SenderUserID:   post.SenderUserID,
		Content:        post.Content,
		Upvotes:        post.Upvotes,
		CommentsCount:  post.CommentsCount,
		CreatedAt:      post.CreatedAt,
		AttachmentURLs: r.hydrator.AttachmentURLs(ctx, nexushydrate.BucketMessageAttachments, post.AttachmentFilePaths),
	}
}

func (r *Resolver) FetchPostComments(ctx context.Context, args struct {
	PostID          string
	ParentCommentID *string
	Offset          *int32
	Limit           *int32
}) ([]Comment, error) {
	parent := ""
	if args.ParentCommentID != nil {
		parent = *args.ParentCommentID
	}
	offset, limit := page(args.Offset, args.Limit)
	comments, err := r.groups.GetPostComments(ctx, args.PostID, parent, offset, limit)
	if err != nil {
		return nil, err
	}
	return r.hydrateComments(ctx, comments), nil
}

func (r *Resolver) hydrateComments(ctx context.Context, comments []nexusapi.Comment) []Comment {
	out := make([]Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, Comment{
			ID:              c.ID,
			PostID:          c.PostID,
			ParentCommentID: c.ParentCommentID,
			SenderUserID:    c.SenderUserID,
			Content:         c.Content,
			CreatedAt:       c.CreatedAt,
			AttachmentURLs:  r.hydrator.AttachmentURLs(ctx, nexushydrate.BucketMessageAttachments, c.AttachmentFilePaths),
			Replies:         r.hydrateComments(ctx, c.Replies),
		})
	}
	return out
}

func (r *Resolver) FetchConversations(ctx context.Context, args struct{ UserID string }) ([]nexusapi.Conversation, error) {
	conversations, err := r.dm.GetConversations(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []nexusapi.Conversation{}
	}
	return conversations, nil
}

func (r *Resolver) FetchConversationMessages(ctx context.Context, args struct {
	ConversationID string
	Offset         *int32
	Limit          *int32
}) ([]DirectMessage, error) {
	offset, limit := page(args.Offset, args.Limit)
	messages, err := r.dm.GetConversationMessages(ctx, args.ConversationID, offset, limit)
	if err != nil {
		return nil, err
	}

	out := make([]DirectMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, DirectMessage{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderUserID:   m.SenderUserID,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
			Edited:         m.Edited,
			AttachmentURLs: r.hydrator.AttachmentURLs(ctx, nexushydrate.BucketDmAttachments, m.AttachmentFilePaths),
		})
	}
	return out, nil
}

func page(offset, limit *int32) (int, int) {
	o, l := defaultOffset, defaultLimit
	if offset != nil {
		o = int(*offset)
	}
	if limit != nil {
		l = int(*limit)
	}
	return o, l
}

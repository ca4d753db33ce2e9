package nexusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tj/assert"
)

func jsonHandler(t *testing.T, wantPath string, out interface{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, wantPath, req.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(out))
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("GetUser", func(t *testing.T) {
		server := httptest.NewServer(jsonHandler(t, "/users/alice", User{ID: "alice", FirstName: "Alice"}))
		defer server.Close()

		client, err := NewUsers(server.URL)
		assert.NoError(t, err)
		user, err := client.GetUser(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, "alice", user.ID)
		assert.Equal(t, "Alice", user.FirstName)
	})

	t.Run("GetUserByEmail sends the query parameter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "alice@example.com", req.URL.Query().Get("email"))
			json.NewEncoder(w).Encode(User{ID: "alice"})
		}))
		defer server.Close()

		client, err := NewUsers(server.URL)
		assert.NoError(t, err)
		user, err := client.GetUserByEmail(ctx, "alice@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "alice", user.ID)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer server.Close()

		client, err := NewUsers(server.URL)
		assert.NoError(t, err)
		_, err = client.GetUser(ctx, "nobody")
		assert.Error(t, err)
	})
}

func TestFriends(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/friends/alice", []Friend{
		{ID: "f1", UserID: "alice", FriendUserID: "bob", Status: FriendStatusAccepted},
	}))
	defer server.Close()

	client, err := NewFriends(server.URL)
	assert.NoError(t, err)
	friends, err := client.GetFriends(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].FriendUserID)
}

func TestGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("GetChannelMessages pages", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "/channels/c1/messages", req.URL.Path)
			assert.Equal(t, "10", req.URL.Query().Get("offset"))
			assert.Equal(t, "25", req.URL.Query().Get("limit"))
			json.NewEncoder(w).Encode([]ChannelMessage{{ID: "m1", ChannelID: "c1"}})
		}))
		defer server.Close()

		client, err := NewGroups(server.URL)
		assert.NoError(t, err)
		messages, err := client.GetChannelMessages(ctx, "c1", 10, 25)
		assert.NoError(t, err)
		assert.Len(t, messages, 1)
	})

	t.Run("GetPostComments forwards parentCommentId only when set", func(t *testing.T) {
		var gotParent []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			gotParent = append(gotParent, req.URL.Query().Get("parentCommentId"))
			json.NewEncoder(w).Encode([]Comment{})
		}))
		defer server.Close()

		client, err := NewGroups(server.URL)
		assert.NoError(t, err)
		_, err = client.GetPostComments(ctx, "p1", "", 0, 50)
		assert.NoError(t, err)
		_, err = client.GetPostComments(ctx, "p1", "c9", 0, 50)
		assert.NoError(t, err)
		assert.Equal(t, []string{"", "c9"}, gotParent)
	})

	t.Run("comment replies decode recursively", func(t *testing.T) {
		server := httptest.NewServer(jsonHandler(t, "/posts/p1/comments", []Comment{{
			ID:      "c1",
			Replies: []Comment{{ID: "c2", Replies: []Comment{{ID: "c3"}}}},
		}}))
		defer server.Close()

		client, err := NewGroups(server.URL)
		assert.NoError(t, err)
		comments, err := client.GetPostComments(ctx, "p1", "", 0, 50)
		assert.NoError(t, err)
		assert.Equal(t, "c3", comments[0].Replies[0].Replies[0].ID)
	})
}

func TestDirectMessaging(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/users/alice/conversations":
			json.NewEncoder(w).Encode([]Conversation{{ID: "conv1", ParticipantsUserIDs: []string{"alice", "bob"}}})
		case "/conversations/conv1/messages":
			json.NewEncoder(w).Encode([]DirectMessage{{ID: "d1", ConversationID: "conv1"}})
		default:
			http.NotFound(w, req)
		}
	}))
	defer server.Close()

	client, err := NewDirectMessaging(server.URL)
	assert.NoError(t, err)

	conversations, err := client.GetConversations(ctx, "alice")
	assert.NoError(t, err)
	assert.Len(t, conversations, 1)

	messages, err := client.GetConversationMessages(ctx, "conv1", 0, 50)
	assert.NoError(t, err)
	assert.Equal(t, "d1", messages[0].ID)
}

func TestNewClient(t *testing.T) {
	_, err := NewUsers("://not a url")
	assert.Error(t, err)
}

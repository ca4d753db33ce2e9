package nexusws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	nexusapi "github.com/hephaestus-app/nexus-gateway/nexus-api"
)

// FilterKind tags the per-subscription predicate variants.
type FilterKind int

const (
	// KindChannelEquals forwards only events whose channelId matches.
	KindChannelEquals FilterKind = iota + 1
	// KindConversationEquals forwards only events whose conversationId matches.
	KindConversationEquals
	// KindIsFriendOf forwards only status changes of users who are accepted
	// friends of the subscriber.
	KindIsFriendOf
)

// Filter is the predicate bound to one client subscription.
type Filter struct {
	Kind FilterKind
	ID   string
}

func ChannelEquals(channelID string) Filter {
	return Filter{Kind: KindChannelEquals, ID: channelID}
}

func ConversationEquals(conversationID string) Filter {
	return Filter{Kind: KindConversationEquals, ID: conversationID}
}

func IsFriendOf(subscriberUserID string) Filter {
	return Filter{Kind: KindIsFriendOf, ID: subscriberUserID}
}

// FriendLister re-queries a user's friend list. Implemented by
// nexusapi.Friends.
type FriendLister interface {
	GetFriends(ctx context.Context, userID string) ([]nexusapi.Friend, error)
}

// Evaluator interprets filters against raw hub payloads. Evaluation failures
// are fail-closed: the event is not forwarded and the connection is left
// intact.
type Evaluator struct {
	friends FriendLister
	logger  zerolog.Logger
}

func NewEvaluator(friends FriendLister, logger zerolog.Logger) *Evaluator {
	return &Evaluator{friends: friends, logger: logger}
}

// eventFields are the payload fields filters discriminate on.
type eventFields struct {
	ChannelID      string `json:"channelId"`
	ConversationID string `json:"conversationId"`
	FriendUserID   string `json:"friendUserId"`
}

// Match reports whether payload passes filter.
func (e *Evaluator) Match(ctx context.Context, filter Filter, payload json.RawMessage) bool {
	ok, err := e.match(ctx, filter, payload)
	if err != nil {
		e.logger.Warn().Err(err).Int("kind", int(filter.Kind)).Msg("filter evaluation failed, not forwarding")
		return false
	}
	return ok
}

func (e *Evaluator) match(ctx context.Context, filter Filter, payload json.RawMessage) (bool, error) {
	var fields eventFields
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false, fmt.Errorf("unparseable event payload: %w", err)
	}

	switch filter.Kind {
	case KindChannelEquals:
		return fields.ChannelID == filter.ID, nil
	case KindConversationEquals:
		return fields.ConversationID == filter.ID, nil
	case KindIsFriendOf:
		if fields.FriendUserID == "" {
			return false, nil
		}
		friends, err := e.friends.GetFriends(ctx, filter.ID)
		if err != nil {
			return false, fmt.Errorf("fetching friends of %v: %w", filter.ID, err)
		}
		for _, friend := range friends {
			if friend.Status != nexusapi.FriendStatusAccepted {
				continue
			}
			if friend.FriendUserID == fields.FriendUserID || friend.UserID == fields.FriendUserID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown filter kind %v", filter.Kind)
	}
}

// Package nexusws serves the gateway's persistent duplex connections. It
// speaks the graphql-ws protocol over websockets, authenticates connections,
// triggers broker provisioning for the authenticated user, and forwards hub
// events through per-subscription predicate filters.
package nexusws

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	nexusbridge "github.com/hephaestus-app/nexus-gateway/nexus-bridge"
	"github.com/hephaestus-app/nexus-gateway/nexus-ws/hub"
)

// UserProvisioner ensures broker resources exist for a user. Implemented by
// nexusbridge.Provisioner.
type UserProvisioner interface {
	EnsureUserSubscription(ctx context.Context, userID string) error
}

// Handler upgrades websocket requests and runs the subscription protocol for
// each connection.
type Handler struct {
	Hub         *hub.Hub
	Provisioner UserProvisioner
	Auth        *JWTAuth
	Evaluator   *Evaluator
	Logger      zerolog.Logger

	upgrader websocket.Upgrader
}

func NewHandler(h *hub.Hub, provisioner UserProvisioner, auth *JWTAuth, evaluator *Evaluator, logger zerolog.Logger) *Handler {
	return &Handler{
		Hub:         h,
		Provisioner: provisioner,
		Auth:        auth,
		Evaluator:   evaluator,
		Logger:      logger,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"graphql-transport-ws"},
			// Browser clients connect from arbitrary app origins; auth happens
			// at connection_init, not at upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ws, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	newConn(h, ws).run(req.Context())
}

// routeSubscription maps a subscription field and its arguments onto a hub
// key and the filter guarding it. friendStatusChanged always filters on the
// authenticated user, never a client-supplied id.
func routeSubscription(field string, args map[string]interface{}, userID string) (string, Filter, error) {
	switch field {
	case "messageAdded":
		channelID, _ := args["channelId"].(string)
		if channelID == "" {
			return "", Filter{}, fmt.Errorf("messageAdded requires a channelId")
		}
		return nexusbridge.KeyMessageAdded, ChannelEquals(channelID), nil
	case "dmAdded":
		conversationID, _ := args["conversationId"].(string)
		if conversationID == "" {
			return "", Filter{}, fmt.Errorf("dmAdded requires a conversationId")
		}
		return nexusbridge.KeyDmAdded, ConversationEquals(conversationID), nil
	case "friendStatusChanged":
		return nexusbridge.KeyFriendStatusChanged, IsFriendOf(userID), nil
	default:
		return "", Filter{}, fmt.Errorf("unknown subscription field %v", field)
	}
}

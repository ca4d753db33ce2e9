package nexusbridge

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	nexushydrate "github.com/hephaestus-app/nexus-gateway/nexus-hydrate"
	"github.com/hephaestus-app/nexus-gateway/nexus-bridge/broker"
	"github.com/hephaestus-app/nexus-gateway/nexus-ws/hub"
)

// Router classifies inbound broker payloads and republishes them onto the
// local hub. It never fails a delivery: malformed or unknown envelopes are
// logged and acknowledged so the broker does not redeliver them forever.
type Router struct {
	hub      *hub.Hub
	hydrator *nexushydrate.Hydrator
	logger   zerolog.Logger
}

func NewRouter(h *hub.Hub, hydrator *nexushydrate.Hydrator, logger zerolog.Logger) *Router {
	return &Router{
		hub:      h,
		hydrator: hydrator,
		logger:   logger,
	}
}

// OnMessage is the broker delivery callback. The underlying message is
// acknowledged exactly once, after the hub publish attempt.
func (r *Router) OnMessage(ctx context.Context, msg broker.Message) {
	var envelope Envelope
	if err := json.Unmarshal(msg.Data(), &envelope); err != nil {
		r.logger.Warn().Err(err).Msg("unparseable envelope, acknowledging")
		msg.Ack()
		return
	}

	switch envelope.Type {
	case EventNewMessage:
		hydrated := r.hydrator.Entity(ctx, envelope.Payload, nexushydrate.BucketMessageAttachments)
		r.hub.Publish(KeyMessageAdded, hydrated)
	case EventNewDm:
		hydrated := r.hydrator.Entity(ctx, envelope.Payload, nexushydrate.BucketDmAttachments)
		r.hub.Publish(KeyDmAdded, hydrated)
	case EventFriendStatusChanged:
		r.hub.Publish(KeyFriendStatusChanged, envelope.Payload)
	default:
		r.logger.Warn().Str("type", envelope.Type).Msg("unknown envelope type, acknowledging")
	}

	msg.Ack()
}

package nexusws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hephaestus-app/nexus-gateway/nexus-ws/hub"
)

// connState is the per-connection lifecycle. Transitions only move forward;
// stateClosed is terminal.
type connState int

const (
	stateConnecting connState = iota
	stateAuthenticated
	stateSubscribed
	stateClosed
)

const (
	maxMessageSize = 1 << 20
	sendBuffer     = 32
	closeDeadline  = time.Second
)

// conn binds one authenticated user identity to one live websocket and the
// hub streams backing its client subscriptions.
type conn struct {
	h      *Handler
	ws     *websocket.Conn
	logger zerolog.Logger

	send chan []byte
	done chan struct{}

	mu         sync.Mutex
	state      connState
	userID     string
	subs       map[string]*clientSub
	deliveries sync.WaitGroup
}

// clientSub is one active client subscription: a hub stream guarded by a
// filter, pumped by its own delivery goroutine.
type clientSub struct {
	field  string
	stream *hub.Stream
	cancel context.CancelFunc
}

func newConn(h *Handler, ws *websocket.Conn) *conn {
	connID := uuid.NewString()
	return &conn{
		h:      h,
		ws:     ws,
		logger: h.Logger.With().Str("connection_id", connID).Logger(),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		state:  stateConnecting,
		subs:   map[string]*clientSub{},
	}
}

func (c *conn) run(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.writePump(ctx) })
	g.Go(func() error { return c.readPump(ctx) })
	err := g.Wait()
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Debug().Err(err).Msg("connection terminated")
	}
	c.close()
}

// readPump always returns a non-nil error on exit so the errgroup context
// cancels and the write pump unwinds with it.
func (c *conn) readPump(ctx context.Context) error {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := ParseMessage(data)
		if err != nil {
			c.closeWith(CloseBadRequest, "invalid message")
			return err
		}

		switch msg.Type {
		case MsgConnectionInit:
			if err := c.handleInit(ctx, msg); err != nil {
				return err
			}
		case MsgSubscribe:
			if err := c.handleSubscribe(ctx, msg); err != nil {
				return err
			}
		case MsgComplete:
			c.handleComplete(msg.ID)
		case MsgPing:
			c.enqueue(PongMessage())
		default:
			c.logger.Warn().Str("type", msg.Type).Msg("unhandled message type")
		}
	}
}

func (c *conn) writePump(ctx context.Context) error {
	for {
		select {
		case msg := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("writing to websocket: %w", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// enqueue queues an outbound protocol message without ever blocking a
// delivery goroutine past connection close.
func (c *conn) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

func (c *conn) handleInit(ctx context.Context, msg *Message) error {
	c.mu.Lock()
	already := c.state != stateConnecting
	c.mu.Unlock()
	if already {
		c.closeWith(CloseTooManyInitRequests, "too many initialisation requests")
		return fmt.Errorf("duplicate connection_init")
	}

	var payload InitPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.closeWith(CloseBadRequest, "invalid connection_init payload")
			return err
		}
	}

	claims, err := c.h.Auth.ValidateToken(payload.Token)
	if err != nil {
		c.logger.Warn().Err(err).Msg("connection rejected")
		c.closeWith(CloseUnauthorized, "unauthenticated")
		return err
	}

	// Provisioning failure is fatal to this authentication attempt. It is
	// not retried here; the client reconnects.
	if err := c.h.Provisioner.EnsureUserSubscription(ctx, claims.UserID); err != nil {
		c.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("failed to provision user subscription")
		c.closeWith(CloseInternalServerError, "subscription provisioning failed")
		return err
	}

	c.mu.Lock()
	c.state = stateAuthenticated
	c.userID = claims.UserID
	c.mu.Unlock()

	c.logger = c.logger.With().Str("user_id", claims.UserID).Logger()
	c.enqueue(AckMessage())
	c.logger.Info().Msg("connection authenticated")
	return nil
}

func (c *conn) handleSubscribe(ctx context.Context, msg *Message) error {
	c.mu.Lock()
	state, userID := c.state, c.userID
	c.mu.Unlock()
	if state == stateConnecting {
		c.closeWith(CloseUnauthorized, "unauthorized")
		return fmt.Errorf("subscribe before connection_init")
	}

	var payload SubscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.enqueue(ErrorMessage(msg.ID, "invalid subscribe payload"))
		return nil
	}

	field, args, err := ExtractSubscriptionField(payload)
	if err != nil {
		c.enqueue(ErrorMessage(msg.ID, err.Error()))
		return nil
	}

	key, filter, err := routeSubscription(field, args, userID)
	if err != nil {
		c.enqueue(ErrorMessage(msg.ID, err.Error()))
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &clientSub{
		field:  field,
		stream: c.h.Hub.Subscribe(key),
		cancel: cancel,
	}

	c.mu.Lock()
	if _, exists := c.subs[msg.ID]; exists {
		c.mu.Unlock()
		cancel()
		sub.stream.Close()
		c.closeWith(CloseSubscriberExists, fmt.Sprintf("subscriber for %v already exists", msg.ID))
		return fmt.Errorf("duplicate subscription id %v", msg.ID)
	}
	c.subs[msg.ID] = sub
	c.state = stateSubscribed
	c.deliveries.Add(1)
	c.mu.Unlock()

	go c.deliver(subCtx, msg.ID, filter, sub)

	c.logger.Info().
		Str("sub_id", msg.ID).
		Str("field", field).
		Str("key", key).
		Msg("subscription created")
	return nil
}

// deliver forwards hub events that pass the subscription's filter.
func (c *conn) deliver(ctx context.Context, id string, filter Filter, sub *clientSub) {
	defer c.deliveries.Done()
	for {
		select {
		case payload, ok := <-sub.stream.C:
			if !ok {
				return
			}
			if !c.h.Evaluator.Match(ctx, filter, payload) {
				continue
			}
			c.enqueue(NextMessage(id, executionResult(sub.field, payload)))
		case <-ctx.Done():
			return
		}
	}
}

// executionResult shapes an event payload the way graphql clients expect:
// {"data": {"<field>": <payload>}}.
func executionResult(field string, payload json.RawMessage) json.RawMessage {
	result, _ := json.Marshal(map[string]map[string]json.RawMessage{
		"data": {field: payload},
	})
	return result
}

func (c *conn) handleComplete(id string) {
	c.mu.Lock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if !ok {
		return
	}

	sub.cancel()
	sub.stream.Close()
	c.logger.Info().Str("sub_id", id).Msg("subscription completed")
}

// close transitions to the terminal state and releases every filter bound to
// this connection. The user's broker subscription is shared process-wide and
// is never torn down here.
func (c *conn) close() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	subs := c.subs
	c.subs = map[string]*clientSub{}
	close(c.done)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		sub.stream.Close()
	}
	c.deliveries.Wait()
	c.ws.Close()
	c.logger.Info().Msg("connection closed")
}

func (c *conn) closeWith(code int, reason string) {
	deadline := time.Now().Add(closeDeadline)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.ws.Close()
}

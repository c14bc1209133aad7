/*
Package chat contains the presence engine: the session registry, the event router,
the broadcast emitter and the hub that serializes every connection's events.

This file defines the Router, which validates inbound event payloads and runs the
matching handler against the registry and emitter.
*/
package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tealtint-nt/WebRTCSample/internal/app/user"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/errs"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/randx"
)

// MaxContentBytes is the maximum allowed size of a chat message's content.
const MaxContentBytes = 5000

// handlerFunc processes one event for connID. A non-nil error means the event was
// dropped without mutating the registry or broadcasting.
type handlerFunc func(connID string, data json.RawMessage) *errs.CustomError

// Router dispatches inbound events by name. Unknown names are ignored.
// Router is not safe for concurrent use; the Hub calls it from its run loop only.
type Router struct {
	registry *Registry
	emitter  *Emitter
	ids      randx.IDGenerator
	now      func() time.Time

	handlers map[string]handlerFunc

	logger zerolog.Logger
}

// NewRouter wires the handler table to registry and emitter.
// ids issues chat message ids; now stamps them. Nil values select UUIDs and time.Now.
func NewRouter(registry *Registry, emitter *Emitter, ids randx.IDGenerator, now func() time.Time) *Router {
	if ids == nil {
		ids = randx.UUIDGenerator{}
	}
	if now == nil {
		now = time.Now
	}

	rt := &Router{
		registry: registry,
		emitter:  emitter,
		ids:      ids,
		now:      now,
		logger:   logx.Component("router"),
	}

	rt.handlers = map[string]handlerFunc{
		EventLogin:       rt.handleLogin,
		EventMessageSend: rt.handleMessageSend,
		EventMove:        rt.handleMove,
		EventTyping:      rt.handleTyping,
		EventDisconnect:  rt.handleDisconnect,
	}

	return rt
}

// Dispatch runs the handler registered for event. Rejected events are logged and
// returned; unknown events are ignored and yield nil.
func (rt *Router) Dispatch(connID, event string, data json.RawMessage) error {
	handle, ok := rt.handlers[event]
	if !ok {
		rt.logger.Debug().
			Str("conn_id", connID).
			Str("event", event).
			Msg("Ignoring unsupported event.")
		return nil
	}

	if customErr := handle(connID, data); customErr != nil {
		rt.logger.Warn().
			Str("conn_id", connID).
			Str("event", event).
			Int("code", customErr.Code).
			Msg(customErr.Message)
		return customErr
	}

	return nil
}

// handleLogin registers the connection's user, replacing any earlier record for the
// same connection, then announces the join and the new presence list.
func (rt *Router) handleLogin(connID string, data json.RawMessage) *errs.CustomError {
	if !isObject(data) {
		return invalidPayload(EventLogin, "expected an object")
	}

	var rec user.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return invalidPayload(EventLogin, err.Error())
	}

	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return invalidPayload(EventLogin, "name is required")
	}

	_, relogin := rt.registry.Get(connID)
	stored := rt.registry.Create(connID, rec)

	rt.logger.Info().
		Str("conn_id", connID).
		Str("name", stored.Name).
		Bool("relogin", relogin).
		Int("total_users", rt.registry.Len()).
		Msg("User logged in.")

	return rt.announce(fmt.Sprintf("%s joined the chat", stored.Name))
}

// handleMessageSend relays a chat message from a logged-in user to everyone.
// The sender is always the originating connection.
func (rt *Router) handleMessageSend(connID string, data json.RawMessage) *errs.CustomError {
	var payload struct {
		Content *string `json:"content"`
	}
	if !isObject(data) {
		return invalidPayload(EventMessageSend, "expected an object")
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalidPayload(EventMessageSend, err.Error())
	}
	if payload.Content == nil || strings.TrimSpace(*payload.Content) == "" {
		return invalidPayload(EventMessageSend, "content is required")
	}
	if len(*payload.Content) > MaxContentBytes {
		return invalidPayload(EventMessageSend, "content is too long")
	}

	if _, ok := rt.registry.Get(connID); !ok {
		return errs.NewError(errs.ErrUnknownConnection)
	}

	msg := rt.newMessage(TypeChat, *payload.Content, connID)
	if err := rt.emitter.BroadcastAll(EventMessageNew, msg); err != nil {
		return errs.NewError(errs.ErrUnknown)
	}

	return nil
}

// handleMove updates the caller's position and rebroadcasts the presence list.
func (rt *Router) handleMove(connID string, data json.RawMessage) *errs.CustomError {
	var payload struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if !isObject(data) {
		return invalidPayload(EventMove, "expected an object")
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return invalidPayload(EventMove, "x and y must be numbers")
	}
	if payload.X == nil || payload.Y == nil {
		return invalidPayload(EventMove, "x and y are required")
	}

	pos := user.Position{X: *payload.X, Y: *payload.Y}
	if _, ok := rt.registry.Update(connID, Patch{Position: &pos}); !ok {
		return errs.NewError(errs.ErrUnknownConnection)
	}

	return rt.broadcastUsers()
}

// handleTyping relays the caller's typing state to every other connection.
func (rt *Router) handleTyping(connID string, data json.RawMessage) *errs.CustomError {
	var isTyping bool
	switch string(bytes.TrimSpace(data)) {
	case "true":
		isTyping = true
	case "false":
	default:
		return invalidPayload(EventTyping, "expected a boolean")
	}

	rec, ok := rt.registry.Get(connID)
	if !ok {
		return errs.NewError(errs.ErrUnknownConnection)
	}

	payload := TypingPayload{
		UserID:   rec.ID,
		Name:     rec.Name,
		IsTyping: isTyping,
	}
	if err := rt.emitter.BroadcastOthers(connID, EventTyping, payload); err != nil {
		return errs.NewError(errs.ErrUnknown)
	}

	return nil
}

// handleDisconnect removes the caller's user. A connection that never logged in
// leaves silently.
func (rt *Router) handleDisconnect(connID string, _ json.RawMessage) *errs.CustomError {
	rec, ok := rt.registry.Remove(connID)
	if !ok {
		rt.logger.Debug().Str("conn_id", connID).Msg("Connection closed before login.")
		return nil
	}

	rt.logger.Info().
		Str("conn_id", connID).
		Str("name", rec.Name).
		Int("total_users", rt.registry.Len()).
		Msg("User left.")

	return rt.announce(fmt.Sprintf("%s left the chat", rec.Name))
}

// announce broadcasts a system message followed by the presence list.
// The order lets clients see a join before the list that contains the user,
// and a departure before the list without them.
func (rt *Router) announce(content string) *errs.CustomError {
	msg := rt.newMessage(TypeSystem, content, "")
	if err := rt.emitter.BroadcastAll(EventMessageNew, msg); err != nil {
		return errs.NewError(errs.ErrUnknown)
	}

	return rt.broadcastUsers()
}

// broadcastUsers sends the current presence list to every connection.
func (rt *Router) broadcastUsers() *errs.CustomError {
	if err := rt.emitter.BroadcastAll(EventUsersUpdate, rt.registry.Snapshot()); err != nil {
		return errs.NewError(errs.ErrUnknown)
	}
	return nil
}

func (rt *Router) newMessage(kind MessageType, content, sender string) ChatMessage {
	return ChatMessage{
		ID:        rt.ids.NewID(),
		Type:      kind,
		Content:   content,
		Sender:    sender,
		Timestamp: formatTimestamp(rt.now()),
	}
}

func invalidPayload(event, reason string) *errs.CustomError {
	return errs.NewError(errs.ErrInvalidEventPayload, event, reason)
}

// isObject reports whether data is a JSON object.
func isObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

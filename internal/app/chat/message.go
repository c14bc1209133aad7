/*
Package chat contains the presence engine: the session registry, the event router,
the broadcast emitter and the hub that serializes every connection's events.

This file defines the wire envelope, event names and the outbound payload types.
*/
package chat

import (
	"encoding/json"
	"time"
)

// Inbound event names.
const (
	EventLogin       = "login"
	EventMessageSend = "message:send"
	EventMove        = "move"
	EventTyping      = "typing"
	EventDisconnect  = "disconnect"
)

// Outbound event names. The typing relay reuses EventTyping.
const (
	EventMessageNew  = "message:new"
	EventUsersUpdate = "users:update"
)

// MessageType distinguishes server-generated notices from user chat.
type MessageType string

const (
	TypeSystem MessageType = "system"
	TypeChat   MessageType = "chat"
)

// timestampLayout renders UTC millisecond ISO-8601 timestamps.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the JSON frame carried over the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatMessage is broadcast as the payload of message:new. It is never stored.
type ChatMessage struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Sender    string      `json:"sender,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// TypingPayload is relayed to every connection except the typist.
type TypingPayload struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

// formatTimestamp renders t in the wire timestamp format.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// encodeEnvelope marshals an outbound frame.
func encodeEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{Event: event, Data: data})
}

/*
Package chat contains the presence engine: the session registry, the event router,
the broadcast emitter and the hub that serializes every connection's events.

This file defines the Hub, which owns connection lifecycles and runs every handler
on a single goroutine so that a registry mutation and the broadcasts it triggers
are never interleaved with another event.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tealtint-nt/WebRTCSample/internal/pkg/errs"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/randx"
)

const inboxBuffer = 1024

// State is the lifecycle state of one connection.
type State int

const (
	// StatePending is a connected transport that has not logged in.
	StatePending State = iota

	// StateActive is a connection with a registered user.
	StateActive

	// StateTerminated is absorbing; terminated connections are forgotten.
	StateTerminated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	default:
		return "terminated"
	}
}

type hubEventKind int

const (
	kindConnect hubEventKind = iota
	kindEvent
	kindDisconnect
)

// hubEvent is one item of the hub's inbox. Connects, events and disconnects share a
// single channel so a connection's notifications are processed in the order sent.
type hubEvent struct {
	kind   hubEventKind
	connID string
	peer   Peer
	name   string
	data   json.RawMessage
}

type connection struct {
	peer  Peer
	state State
}

// Stats is a point-in-time view of the hub's size.
type Stats struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
}

// Hub is the connection lifecycle controller.
type Hub struct {
	registry *Registry
	emitter  *Emitter
	router   *Router

	// conns is owned by the Run goroutine.
	conns map[string]*connection

	inbox chan hubEvent

	// stopChan signals Run to return; done is closed once it has.
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger zerolog.Logger
}

// NewHub builds a hub with an empty registry.
// ids issues chat message ids and now stamps them; nil values select UUIDs and time.Now.
func NewHub(ids randx.IDGenerator, now func() time.Time) *Hub {
	registry := NewRegistry()
	emitter := NewEmitter()

	return &Hub{
		registry: registry,
		emitter:  emitter,
		router:   NewRouter(registry, emitter, ids, now),
		conns:    make(map[string]*connection),
		inbox:    make(chan hubEvent, inboxBuffer),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logx.Component("hub"),
	}
}

// Registry exposes the session registry for read-only observers.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Stats returns the current connection and user counts.
func (h *Hub) Stats() Stats {
	return Stats{
		Connections: h.emitter.Len(),
		Users:       h.registry.Len(),
	}
}

// Connect queues a new transport connection. It reports false once the hub has stopped.
func (h *Hub) Connect(p Peer) bool {
	return h.send(hubEvent{kind: kindConnect, connID: p.ID(), peer: p})
}

// Deliver queues an inbound event from connID. It reports false once the hub has stopped.
func (h *Hub) Deliver(connID, name string, data json.RawMessage) bool {
	return h.send(hubEvent{kind: kindEvent, connID: connID, name: name, data: data})
}

// Disconnect queues the transport-level close of connID.
func (h *Hub) Disconnect(connID string) bool {
	return h.send(hubEvent{kind: kindDisconnect, connID: connID})
}

func (h *Hub) send(ev hubEvent) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.inbox <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Stop signals Run to return. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info().Msg("Received stop signal. Stopping hub.")
		close(h.stopChan)
	})
}

// Done is closed after Run has returned and every peer has been closed.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run processes the inbox until Stop is called.
func (h *Hub) Run() {
	h.logger.Info().Msg("Hub run loop started.")

	defer func() {
		for id, conn := range h.conns {
			h.emitter.Remove(id)
			conn.peer.Close()
		}
		h.conns = make(map[string]*connection)

		close(h.done)
		h.logger.Info().Msg("Hub run loop finished.")
	}()

	for {
		select {
		case ev := <-h.inbox:
			h.process(ev)

		case <-h.stopChan:
			return
		}
	}
}

// process runs one inbox item to completion.
func (h *Hub) process(ev hubEvent) {
	switch ev.kind {
	case kindConnect:
		h.handleConnect(ev.peer)

	case kindEvent:
		h.handleEvent(ev.connID, ev.name, ev.data)

	case kindDisconnect:
		h.handleDisconnect(ev.connID)
	}
}

func (h *Hub) handleConnect(p Peer) {
	id := p.ID()

	if _, exists := h.conns[id]; exists {
		h.logger.Warn().Str("conn_id", id).Msg("Duplicate connection id. Closing new connection.")
		p.Close()
		return
	}

	h.conns[id] = &connection{peer: p, state: StatePending}
	h.emitter.Add(p)

	h.logger.Debug().
		Str("conn_id", id).
		Int("total_connections", len(h.conns)).
		Msg("Connection opened.")
}

func (h *Hub) handleEvent(connID, name string, data json.RawMessage) {
	conn, ok := h.conns[connID]
	if !ok {
		h.logger.Debug().
			Err(errs.NewError(errs.ErrConnectionNotActive)).
			Str("conn_id", connID).
			Str("event", name).
			Msg("Dropping event for terminated connection.")
		return
	}

	if name == EventDisconnect {
		h.terminate(connID, conn)
		conn.peer.Close()
		return
	}

	if err := h.router.Dispatch(connID, name, data); err != nil {
		return
	}

	if name == EventLogin {
		h.transition(connID, conn, StateActive)
	}
}

func (h *Hub) handleDisconnect(connID string) {
	conn, ok := h.conns[connID]
	if !ok {
		h.logger.Debug().Str("conn_id", connID).Msg("Ignoring disconnect for terminated connection.")
		return
	}

	h.terminate(connID, conn)
}

// terminate stops delivering to the connection before the departure is announced,
// then lets the router clean up the registry.
func (h *Hub) terminate(connID string, conn *connection) {
	h.emitter.Remove(connID)
	delete(h.conns, connID)

	if err := h.router.Dispatch(connID, EventDisconnect, nil); err != nil {
		h.logger.Error().Err(err).Str("conn_id", connID).Msg("Disconnect handler failed.")
	}

	h.transition(connID, conn, StateTerminated)
}

func (h *Hub) transition(connID string, conn *connection, next State) {
	if conn.state == next {
		return
	}

	h.logger.Debug().
		Str("conn_id", connID).
		Stringer("from", conn.state).
		Stringer("to", next).
		Msg("Connection state changed.")

	conn.state = next
}

/*
Package chat contains the presence engine: the session registry, the event router,
the broadcast emitter and the hub that serializes every connection's events.

This file defines the Emitter, which fans outbound events out to connected peers.
*/
package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
)

// Peer is one connected client as seen by the emitter.
type Peer interface {
	// ID returns the connection identifier.
	ID() string

	// Enqueue queues an encoded frame without blocking. It reports false when the
	// peer cannot accept more frames.
	Enqueue(frame []byte) bool

	// Close terminates the underlying connection. It must be safe to call more than once.
	Close()
}

// Emitter delivers events to every connected peer or to every peer but one.
// Each payload is encoded once and the same immutable bytes are queued to each recipient,
// so the order of Broadcast calls is the order every peer observes.
type Emitter struct {
	// mu guards peers.
	mu sync.RWMutex

	peers map[string]Peer

	logger zerolog.Logger
}

// NewEmitter returns an emitter with no peers.
func NewEmitter() *Emitter {
	return &Emitter{
		peers:  make(map[string]Peer),
		logger: logx.Component("emitter"),
	}
}

// Add registers p as a broadcast recipient.
func (e *Emitter) Add(p Peer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.peers[p.ID()] = p
}

// Remove unregisters the peer for id and returns it.
func (e *Emitter) Remove(id string) (Peer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.peers[id]
	if ok {
		delete(e.peers, id)
	}
	return p, ok
}

// Len returns the number of connected peers.
func (e *Emitter) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.peers)
}

// BroadcastAll sends event to every connected peer.
func (e *Emitter) BroadcastAll(event string, payload any) error {
	return e.broadcast("", event, payload)
}

// BroadcastOthers sends event to every connected peer except originator.
func (e *Emitter) BroadcastOthers(originator, event string, payload any) error {
	return e.broadcast(originator, event, payload)
}

func (e *Emitter) broadcast(exclude, event string, payload any) error {
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		e.logger.Error().Err(err).Str("event", event).Msg("Error marshaling message for broadcast.")
		return err
	}

	var slow []Peer

	e.mu.RLock()
	for id, p := range e.peers {
		if id == exclude {
			continue
		}
		if !p.Enqueue(frame) {
			slow = append(slow, p)
		}
	}
	e.mu.RUnlock()

	e.dropSlow(slow)
	return nil
}

// dropSlow unregisters and closes peers that refused a frame, so later broadcasts
// skip them while their transport reports the disconnect through the normal path.
func (e *Emitter) dropSlow(peers []Peer) {
	if len(peers) == 0 {
		return
	}

	e.mu.Lock()
	for _, p := range peers {
		if current, ok := e.peers[p.ID()]; ok && current == p {
			delete(e.peers, p.ID())
		}
	}
	e.mu.Unlock()

	for _, p := range peers {
		e.logger.Warn().
			Str("conn_id", p.ID()).
			Msg("Peer send queue full or closed, closing connection.")
		p.Close()
	}
}

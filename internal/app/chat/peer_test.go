package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakePeer records every frame queued to it.
type fakePeer struct {
	id string

	mu     sync.Mutex
	frames []Envelope
	full   bool
	closed bool
	closes int
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Enqueue(frame []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.full || p.closed {
		return false
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		panic(fmt.Sprintf("peer %s got invalid frame %s: %v", p.id, frame, err))
	}
	p.frames = append(p.frames, env)
	return true
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	p.closed = true
	p.closes++
	p.mu.Unlock()
}

func (p *fakePeer) SetFull(full bool) {
	p.mu.Lock()
	p.full = full
	p.mu.Unlock()
}

func (p *fakePeer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePeer) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *fakePeer) Frames() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Envelope(nil), p.frames...)
}

// Described renders every frame with describe.
func (p *fakePeer) Described(t *testing.T) []string {
	t.Helper()

	frames := p.Frames()
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, describe(t, f))
	}
	return out
}

// describe renders a frame compactly:
// "system:<content>", "chat:<sender>:<content>", "users:[Name@x,y ...]" or "typing:<name>:<bool>".
func describe(t *testing.T, env Envelope) string {
	t.Helper()

	switch env.Event {
	case EventMessageNew:
		var msg ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		if msg.Type == TypeSystem {
			return "system:" + msg.Content
		}
		return fmt.Sprintf("chat:%s:%s", msg.Sender, msg.Content)

	case EventUsersUpdate:
		var users []struct {
			Name     string `json:"name"`
			Position struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"position"`
		}
		if err := json.Unmarshal(env.Data, &users); err != nil {
			t.Fatalf("decode users: %v", err)
		}
		parts := make([]string, 0, len(users))
		for _, u := range users {
			parts = append(parts, fmt.Sprintf("%s@%g,%g", u.Name, u.Position.X, u.Position.Y))
		}
		return "users:[" + strings.Join(parts, " ") + "]"

	case EventTyping:
		var payload TypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			t.Fatalf("decode typing: %v", err)
		}
		return fmt.Sprintf("typing:%s:%t", payload.Name, payload.IsTyping)
	}

	return env.Event
}

// fixedClock returns a clock pinned to a single instant.
func fixedClock() func() time.Time {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

package chat

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/tealtint-nt/WebRTCSample/internal/app/user"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/errs"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/randx"
)

type routerFixture struct {
	registry *Registry
	emitter  *Emitter
	router   *Router
}

func newRouterFixture(peers ...*fakePeer) *routerFixture {
	registry := NewRegistry()
	emitter := NewEmitter()
	for _, p := range peers {
		emitter.Add(p)
	}

	return &routerFixture{
		registry: registry,
		emitter:  emitter,
		router:   NewRouter(registry, emitter, randx.NewSequenceGenerator("msg"), fixedClock()),
	}
}

func (f *routerFixture) dispatch(t *testing.T, connID, event, data string) error {
	t.Helper()

	var raw json.RawMessage
	if data != "" {
		raw = json.RawMessage(data)
	}
	return f.router.Dispatch(connID, event, raw)
}

func TestRouterLoginOverridesID(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"string id", `{"name":"A","id":"client-supplied"}`},
		{"numeric id", `{"name":"A","id":42}`},
		{"object id", `{"name":"A","id":{"x":1}}`},
		{"null id", `{"name":"A","id":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := newFakePeer("c1")
			f := newRouterFixture(observer)

			if err := f.dispatch(t, "c1", EventLogin, tt.data); err != nil {
				t.Fatalf("login: %v", err)
			}

			rec, ok := f.registry.Get("c1")
			if !ok {
				t.Fatal("expected record for c1")
			}
			if rec.ID != "c1" {
				t.Errorf("ID = %q, want c1", rec.ID)
			}

			want := []string{"system:A joined the chat", "users:[A@0,0]"}
			if got := observer.Described(t); !reflect.DeepEqual(got, want) {
				t.Errorf("frames = %v, want %v", got, want)
			}
		})
	}
}

func TestRouterLoginBroadcastOrder(t *testing.T) {
	observer := newFakePeer("c1")
	f := newRouterFixture(observer)

	if err := f.dispatch(t, "c1", EventLogin, `{"name":"Alice","position":{"x":3,"y":4},"color":"teal"}`); err != nil {
		t.Fatalf("login: %v", err)
	}

	got := observer.Described(t)
	want := []string{"system:Alice joined the chat", "users:[Alice@3,4]"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}

	var msg ChatMessage
	if err := json.Unmarshal(observer.Frames()[0].Data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ID != "msg-1" || msg.Timestamp != "2024-03-01T12:30:00.000Z" || msg.Sender != "" {
		t.Errorf("system message = %+v", msg)
	}

	var users []map[string]any
	if err := json.Unmarshal(observer.Frames()[1].Data, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if users[0]["color"] != "teal" || users[0]["id"] != "c1" {
		t.Errorf("user record = %v", users[0])
	}
}

func TestRouterRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name  string
		event string
		data  string
	}{
		{"login without name", EventLogin, `{"id":"x"}`},
		{"login blank name", EventLogin, `{"name":"   "}`},
		{"login name not string", EventLogin, `{"name":42}`},
		{"login not object", EventLogin, `"Alice"`},
		{"login missing payload", EventLogin, ``},
		{"login bad position", EventLogin, `{"name":"A","position":"here"}`},
		{"message without content", EventMessageSend, `{"sender":"c1"}`},
		{"message empty content", EventMessageSend, `{"content":""}`},
		{"message content not string", EventMessageSend, `{"content":7}`},
		{"move missing y", EventMove, `{"x":1}`},
		{"move string coords", EventMove, `{"x":"1","y":"2"}`},
		{"move null", EventMove, `null`},
		{"typing string", EventTyping, `"yes"`},
		{"typing null", EventTyping, `null`},
		{"typing object", EventTyping, `{"isTyping":true}`},
		{"typing missing", EventTyping, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := newFakePeer("c1")
			f := newRouterFixture(observer)
			f.registry.Create("c1", mustRecord("Alice"))

			before := f.registry.Snapshot()

			err := f.dispatch(t, "c1", tt.event, tt.data)
			if errs.CodeOf(err) != errs.ErrInvalidEventPayload {
				t.Fatalf("err = %v, want invalid payload", err)
			}
			if n := len(observer.Frames()); n != 0 {
				t.Errorf("broadcast %d frames for malformed event", n)
			}
			if after := f.registry.Snapshot(); !reflect.DeepEqual(before, after) {
				t.Errorf("registry mutated: %v -> %v", before, after)
			}
		})
	}
}

func TestRouterMessageContentLimit(t *testing.T) {
	observer := newFakePeer("c1")
	f := newRouterFixture(observer)
	f.registry.Create("c1", mustRecord("Alice"))

	long := make([]byte, MaxContentBytes+1)
	for i := range long {
		long[i] = 'a'
	}
	data, _ := json.Marshal(map[string]string{"content": string(long)})

	err := f.router.Dispatch("c1", EventMessageSend, data)
	if errs.CodeOf(err) != errs.ErrInvalidEventPayload {
		t.Fatalf("err = %v, want invalid payload", err)
	}
	if len(observer.Frames()) != 0 {
		t.Error("over-long message must not be relayed")
	}
}

func TestRouterMessageSendRelaysToAll(t *testing.T) {
	c1, c2 := newFakePeer("c1"), newFakePeer("c2")
	f := newRouterFixture(c1, c2)
	f.registry.Create("c1", mustRecord("Alice"))

	if err := f.dispatch(t, "c1", EventMessageSend, `{"content":"hello","sender":"spoofed","extra":1}`); err != nil {
		t.Fatalf("message:send: %v", err)
	}

	for _, p := range []*fakePeer{c1, c2} {
		got := p.Described(t)
		if !reflect.DeepEqual(got, []string{"chat:c1:hello"}) {
			t.Errorf("peer %s frames = %v", p.id, got)
		}
	}

	var msg ChatMessage
	_ = json.Unmarshal(c2.Frames()[0].Data, &msg)
	if msg.ID != "msg-1" || msg.Type != TypeChat {
		t.Errorf("message = %+v", msg)
	}
}

func TestRouterMessageIDsAreUnique(t *testing.T) {
	c1 := newFakePeer("c1")
	f := newRouterFixture(c1)
	f.registry.Create("c1", mustRecord("Alice"))

	for _i := 0; _i < 3; _i++ {
		if err := f.dispatch(t, "c1", EventMessageSend, `{"content":"x"}`); err != nil {
			t.Fatalf("message:send: %v", err)
		}
	}

	seen := make(map[string]struct{})
	for _, frame := range c1.Frames() {
		var msg ChatMessage
		_ = json.Unmarshal(frame.Data, &msg)
		if _, dup := seen[msg.ID]; dup {
			t.Fatalf("duplicate message id %s", msg.ID)
		}
		seen[msg.ID] = struct{}{}
	}
}

func TestRouterUnknownConnection(t *testing.T) {
	tests := []struct {
		event string
		data  string
	}{
		{EventMove, `{"x":1,"y":2}`},
		{EventTyping, `true`},
		{EventMessageSend, `{"content":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			observer := newFakePeer("obs")
			f := newRouterFixture(observer)

			err := f.dispatch(t, "ghost", tt.event, tt.data)
			if errs.CodeOf(err) != errs.ErrUnknownConnection {
				t.Fatalf("err = %v, want unknown connection", err)
			}
			if f.registry.Len() != 0 {
				t.Error("registry mutated for unknown connection")
			}
			if len(observer.Frames()) != 0 {
				t.Error("broadcast for unknown connection")
			}
		})
	}
}

func TestRouterTypingExcludesOriginator(t *testing.T) {
	c1, c2, c3 := newFakePeer("c1"), newFakePeer("c2"), newFakePeer("c3")
	f := newRouterFixture(c1, c2, c3)
	f.registry.Create("c1", mustRecord("Alice"))

	if err := f.dispatch(t, "c1", EventTyping, `true`); err != nil {
		t.Fatalf("typing: %v", err)
	}
	if err := f.dispatch(t, "c1", EventTyping, ` false `); err != nil {
		t.Fatalf("typing: %v", err)
	}

	if n := len(c1.Frames()); n != 0 {
		t.Errorf("originator received %d typing frames", n)
	}
	want := []string{"typing:Alice:true", "typing:Alice:false"}
	for _, p := range []*fakePeer{c2, c3} {
		if got := p.Described(t); !reflect.DeepEqual(got, want) {
			t.Errorf("peer %s frames = %v, want %v", p.id, got, want)
		}
	}

	var payload TypingPayload
	_ = json.Unmarshal(c2.Frames()[0].Data, &payload)
	if payload.UserID != "c1" {
		t.Errorf("UserID = %q, want c1", payload.UserID)
	}
}

func TestRouterDisconnectBeforeLoginIsSilent(t *testing.T) {
	observer := newFakePeer("obs")
	f := newRouterFixture(observer)

	if err := f.dispatch(t, "c1", EventDisconnect, ""); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if n := len(observer.Frames()); n != 0 {
		t.Errorf("pre-login disconnect broadcast %d frames", n)
	}
}

func TestRouterReloginRefreshesRecord(t *testing.T) {
	observer := newFakePeer("c1")
	f := newRouterFixture(observer)

	_ = f.dispatch(t, "c1", EventLogin, `{"name":"Alice"}`)
	_ = f.dispatch(t, "c2", EventLogin, `{"name":"Bob"}`)
	_ = f.dispatch(t, "c1", EventMove, `{"x":1,"y":1}`)
	if err := f.dispatch(t, "c1", EventLogin, `{"name":"Alicia"}`); err != nil {
		t.Fatalf("relogin: %v", err)
	}

	if f.registry.Len() != 2 {
		t.Fatalf("Len = %d, want 2", f.registry.Len())
	}

	got := observer.Described(t)
	tail := got[len(got)-2:]
	want := []string{"system:Alicia joined the chat", "users:[Alicia@0,0 Bob@0,0]"}
	if !reflect.DeepEqual(tail, want) {
		t.Errorf("relogin frames = %v, want %v", tail, want)
	}
}

func TestRouterIgnoresUnknownEvents(t *testing.T) {
	observer := newFakePeer("obs")
	f := newRouterFixture(observer)

	if err := f.dispatch(t, "c1", "webrtc:offer", `{"sdp":"v=0"}`); err != nil {
		t.Fatalf("unknown event returned %v", err)
	}
	if len(observer.Frames()) != 0 {
		t.Error("unknown event produced a broadcast")
	}
}

func mustRecord(name string) user.Record {
	return user.Record{Name: name}
}

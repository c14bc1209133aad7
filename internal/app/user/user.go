/*
Package user contains the server-held state describing a logged-in participant.

A Record carries the server-assigned id, the display name, the current position and any
additional fields the client supplied at login. Extra fields are passed through verbatim
so clients can attach presentation data (colour, avatar, peer handles) without server changes.
*/
package user

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Position is a point on the shared canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Record is the registry's view of one logged-in connection.
type Record struct {
	// ID is the connection identifier; always assigned by the server.
	ID string

	// Name is the display name supplied at login.
	Name string

	// Position is the last reported position.
	Position Position

	// Extra holds client-supplied fields other than id, name and position.
	Extra map[string]json.RawMessage
}

// reserved keys are owned by Record and never stored in Extra.
var reserved = map[string]struct{}{
	"id":       {},
	"name":     {},
	"position": {},
}

// Clone returns a deep copy, so callers never share Extra with the registry.
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// MarshalJSON flattens Extra alongside the named fields.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		fields[k] = v
	}
	fields["id"] = r.ID
	fields["name"] = r.Name
	fields["position"] = r.Position

	return json.Marshal(fields)
}

// UnmarshalJSON reads name and position and keeps every other key in Extra.
// A client-supplied id is discarded whatever its type; ID is left empty for the
// server to assign. Type errors on name or position are reported.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var rec Record

	if v, ok := raw["name"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &rec.Name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
	}

	if v, ok := raw["position"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &rec.Position); err != nil {
			return fmt.Errorf("position: %w", err)
		}
	}

	for k, v := range raw {
		if _, skip := reserved[k]; skip {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]json.RawMessage)
		}
		rec.Extra[k] = v
	}

	*r = rec
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

/*
Package randx provides identifier generation for connections and messages.

Identifiers come from an IDGenerator so components can be handed a deterministic
generator in tests. The default generator issues UUID v4 strings.
*/
package randx

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator issues unique string identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUID v4 identifiers.
type UUIDGenerator struct{}

// NewID returns a new UUID v4 string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator issues prefix-1, prefix-2, ... and is safe for concurrent use.
type SequenceGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewSequenceGenerator returns a SequenceGenerator using the given prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.next.Add(1))
}

// ConnectionID generates an identifier for a new transport connection.
func ConnectionID() string {
	return uuid.NewString()
}

// IsValidID reports whether id parses as a UUID.
func IsValidID(id string) bool {
	return uuid.Validate(id) == nil
}

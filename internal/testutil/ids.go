package testutil

// FixedIDs generates the same session id every time.
//
// Unlike engine.FixedGenerator which returns ids in sequence and panics
// when they run out, FixedIDs never runs out. It suits scenarios where
// every session should carry the id written in the scenario file, so the
// golden output does not depend on how many sessions ran.
//
// Thread-safety: FixedIDs is stateless and safe for concurrent use.
type FixedIDs struct {
	id string
}

// NewFixedIDs creates a fixed id generator.
//
// If id is empty, Generate returns "test-session-default".
func NewFixedIDs(id string) *FixedIDs {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedIDs{id: id}
}

// Generate returns the fixed id.
//
// Implements engine.IDGenerator.
func (g *FixedIDs) Generate() string {
	return g.id
}

package engine

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/roach88/dicegraph/internal/render"
)

// Roller answers one request. Ids of the rolls come from ids.
type Roller interface {
	Roll(req Request, ids *RollIDs) Response
}

// RollerFunc adapts a function to the Roller interface.
type RollerFunc func(req Request, ids *RollIDs) Response

// Roll calls f.
func (f RollerFunc) Roll(req Request, ids *RollIDs) Response {
	return f(req, ids)
}

// RandomRoller rolls dice with a PCG generator.
//
// Numbered faces roll in [1, sides], fudge dice in [-1, 1] and coins in
// [0, 1].
//
// Thread-safety: RandomRoller is NOT safe for concurrent use.
type RandomRoller struct {
	rng *rand.Rand
}

// NewRandomRoller creates a roller seeded from crypto/rand.
func NewRandomRoller() *RandomRoller {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("random roller: read seed: %v", err))
	}
	return &RandomRoller{rng: rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))}
}

// NewSeededRoller creates a roller whose sequence is fixed by seed.
func NewSeededRoller(seed uint64) *RandomRoller {
	return &RandomRoller{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll rolls req.Count dice of req.Face.
func (r *RandomRoller) Roll(req Request, ids *RollIDs) Response {
	out := make([]Roll, req.Count)
	for i := range out {
		out[i] = Roll{Value: r.face(req.Face), ID: ids.Next()}
	}
	return Response{Results: out}
}

func (r *RandomRoller) face(f Face) int {
	switch f.Kind {
	case FaceFudge:
		return r.rng.IntN(3) - 1
	case FaceCoin:
		return r.rng.IntN(2)
	}
	if f.Sides <= 0 {
		return 0
	}
	return 1 + r.rng.IntN(f.Sides)
}

// Drive runs s to completion, answering every round with roller.
//
// Cancellation is checked between rounds. The session keeps its state
// when ctx is cancelled, so the caller may resume it.
func Drive(ctx context.Context, s *Session, roller Roller) (*render.Node, error) {
	return DriveRecorded(ctx, s, roller, nil)
}

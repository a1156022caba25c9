package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/render"
)

// ParseFace parses a face written as d<sides>, dF or dC.
func ParseFace(s string) (Face, error) {
	rest, ok := strings.CutPrefix(s, "d")
	if !ok {
		return Face{}, fmt.Errorf("invalid face %q", s)
	}
	switch strings.ToUpper(rest) {
	case "F":
		return Face{Kind: FaceFudge}, nil
	case "C":
		return Face{Kind: FaceCoin}, nil
	}
	sides, err := strconv.Atoi(rest)
	if err != nil || sides < 0 {
		return Face{}, fmt.Errorf("invalid face %q", s)
	}
	return Numbered(sides), nil
}

// Rolled is one die answered during a session, in the order it was rolled.
// Kept is false once the engine dropped or rerolled the die.
type Rolled struct {
	Node  graph.NodeID
	Face  Face
	Value int
	ID    RollID
	Kept  bool
}

// Transcript records every die a session was answered with.
type Transcript struct {
	Rolls   []Rolled
	removed map[RollID]bool
}

func (t *Transcript) record(req Request, resp Response) {
	for _, r := range resp.Results {
		t.Rolls = append(t.Rolls, Rolled{Node: req.Node, Face: req.Face, Value: r.Value, ID: r.ID, Kept: true})
	}
}

func (t *Transcript) remove(ids []RollID) {
	if len(ids) == 0 {
		return
	}
	if t.removed == nil {
		t.removed = make(map[RollID]bool)
	}
	for _, id := range ids {
		t.removed[id] = true
	}
}

func (t *Transcript) finish() {
	for i := range t.Rolls {
		if t.removed[t.Rolls[i].ID] {
			t.Rolls[i].Kept = false
		}
	}
}

// Values returns the rolled values in order.
func (t *Transcript) Values() []int {
	out := make([]int, len(t.Rolls))
	for i, r := range t.Rolls {
		out[i] = r.Value
	}
	return out
}

// DriveRecorded is Drive that also records every roll into t. A nil t
// records nothing.
func DriveRecorded(ctx context.Context, s *Session, roller Roller, t *Transcript) (*render.Node, error) {
	if t != nil {
		defer t.finish()
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("drive session %s: %w", s.ID(), err)
		}
		if s.State() == StateAwaitingEvaluation {
			err := s.Advance()
			if t != nil {
				t.remove(s.Removed())
			}
			if err != nil {
				return nil, err
			}
		}
		switch s.State() {
		case StateDone, StateFailed:
			return s.TryTakeResult()
		}

		requests, err := s.PendingRequests()
		if err != nil {
			return nil, err
		}
		responses := make([]Response, len(requests))
		for i, req := range requests {
			responses[i] = roller.Roll(req, s.RollIDs())
			if t != nil {
				t.record(req, responses[i])
			}
		}
		if err := s.SubmitResponses(responses); err != nil {
			return nil, err
		}
	}
}

// ReplayRoller answers requests with the rolls of an earlier transcript.
//
// Every request must ask for the node and face the transcript recorded
// next. On a mismatch the roller answers short, which fails the session
// with a protocol error, and Err describes what differed.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ReplayRoller struct {
	mu    sync.Mutex
	rolls []Rolled
	next  int
	err   error
}

// NewReplayRoller creates a roller that plays rolls back in order.
func NewReplayRoller(rolls []Rolled) *ReplayRoller {
	return &ReplayRoller{rolls: rolls}
}

// Roll implements Roller. The original roll ids are not reused; ids come
// from ids like any other roller.
func (r *ReplayRoller) Roll(req Request, ids *RollIDs) Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Roll, 0, req.Count)
	for range req.Count {
		if r.err != nil {
			break
		}
		if r.next >= len(r.rolls) {
			r.err = fmt.Errorf("replay exhausted after %d rolls", len(r.rolls))
			break
		}
		want := r.rolls[r.next]
		if want.Node != req.Node || want.Face != req.Face {
			r.err = fmt.Errorf("replay roll %d: recorded node %d %s, requested node %d %s",
				r.next, want.Node, want.Face, req.Node, req.Face)
			break
		}
		out = append(out, Roll{Value: want.Value, ID: ids.Next()})
		r.next++
	}
	return Response{Results: out}
}

// Err returns the first mismatch, or an error when recorded rolls were
// left over.
func (r *ReplayRoller) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.next < len(r.rolls) {
		return fmt.Errorf("replay used %d of %d recorded rolls", r.next, len(r.rolls))
	}
	return nil
}

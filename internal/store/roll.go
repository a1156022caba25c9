package store

import (
	"fmt"
	"time"

	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
)

// Roll is one logged evaluation.
type Roll struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Expression    string    `json:"expression"`
	Folded        string    `json:"folded"`
	ResultJSON    string    `json:"result"`
	ResultHash    string    `json:"result_hash"`
	Total         *float64  `json:"total,omitempty"`
	Rounds        int       `json:"rounds"`
	DiceCount     int       `json:"dice"`
	Seq           int64     `json:"seq"`
	EngineVersion string    `json:"engine_version"`
	CreatedAt     time.Time `json:"created_at"`
	Dice          []Die     `json:"rolls,omitempty"`
}

// Die is one die of a logged roll, in the order it was rolled.
type Die struct {
	Index int    `json:"idx"`
	Node  int    `json:"node"`
	Face  string `json:"face"`
	Value int    `json:"value"`
	Kept  bool   `json:"kept"`
}

// Rolled converts the logged dice back into engine rolls for a replay.
func (r Roll) Rolled() ([]engine.Rolled, error) {
	out := make([]engine.Rolled, len(r.Dice))
	for i, d := range r.Dice {
		face, err := engine.ParseFace(d.Face)
		if err != nil {
			return nil, fmt.Errorf("roll %s die %d: %w", r.ID, d.Index, err)
		}
		out[i] = engine.Rolled{
			Node:  graph.NodeID(d.Node),
			Face:  face,
			Value: d.Value,
			ID:    engine.RollID(i + 1),
			Kept:  d.Kept,
		}
	}
	return out, nil
}

// Matches reports whether out produced the logged result.
func (r Roll) Matches(out *dice.Outcome) (bool, error) {
	_, hash, err := marshalResult(out.Tree.Value)
	if err != nil {
		return false, err
	}
	return hash == r.ResultHash, nil
}

// rollFromOutcome builds the row for a finished evaluation. ID, Seq and
// CreatedAt are assigned by WriteRoll.
func rollFromOutcome(out *dice.Outcome) (Roll, error) {
	resultJSON, hash, err := marshalResult(out.Tree.Value)
	if err != nil {
		return Roll{}, err
	}
	r := Roll{
		SessionID:     out.SessionID,
		Expression:    out.Expression,
		Folded:        out.Folded,
		ResultJSON:    resultJSON,
		ResultHash:    hash,
		Rounds:        out.Rounds,
		DiceCount:     out.Dice,
		EngineVersion: ir.EngineVersion,
		Dice:          make([]Die, len(out.Rolls)),
	}
	if total, ok := out.Total(); ok {
		r.Total = &total
	}
	for i, rolled := range out.Rolls {
		r.Dice[i] = Die{
			Index: i,
			Node:  int(rolled.Node),
			Face:  rolled.Face.String(),
			Value: rolled.Value,
			Kept:  rolled.Kept,
		}
	}
	return r, nil
}

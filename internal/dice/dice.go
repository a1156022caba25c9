// Package dice runs the whole pipeline from source text to a result.
//
// The stages live in their own packages: syntax parses, lower builds the
// IR, optimizer folds it, compiler flattens it into a graph and engine
// evaluates the graph. This package strings them together for callers that
// only hold an expression.
package dice

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/dicegraph/internal/compiler"
	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/lower"
	"github.com/roach88/dicegraph/internal/optimizer"
	"github.com/roach88/dicegraph/internal/render"
	"github.com/roach88/dicegraph/internal/syntax"
)

// ErrNotConstant is returned by CheckConstant when the folded expression
// still contains dice.
var ErrNotConstant = errors.New("the expression is not a constant")

// FoldIR parses, lowers and folds src.
func FoldIR(src string) (ir.Node, error) {
	expr, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}
	n, err := lower.Lower(expr)
	if err != nil {
		return nil, err
	}
	return optimizer.Fold(n)
}

// Prepare compiles src into an evaluation graph.
func Prepare(src string) (*graph.Graph, error) {
	n, err := FoldIR(src)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(n)
}

// Fold returns the folded expression in compact notation.
func Fold(src string) (string, error) {
	n, err := FoldIR(src)
	if err != nil {
		return "", err
	}
	return ir.Format(n), nil
}

// CheckConstant returns the value of src when folding reduces it to a
// single constant.
func CheckConstant(src string) (float64, error) {
	n, err := FoldIR(src)
	if err != nil {
		return 0, err
	}
	num, ok := n.(ir.Number)
	if !ok {
		return 0, ErrNotConstant
	}
	v, ok := ir.ConstantValue(num)
	if !ok {
		return 0, ErrNotConstant
	}
	return v, nil
}

type settings struct {
	roller  engine.Roller
	session []engine.SessionOption
}

// Option configures Roll and Evaluate.
type Option func(*settings)

// WithRoller answers the session's requests with r.
//
// Default: engine.NewRandomRoller()
func WithRoller(r engine.Roller) Option {
	return func(s *settings) {
		s.roller = r
	}
}

// WithSeed rolls with a generator seeded by seed.
func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.roller = engine.NewSeededRoller(seed)
	}
}

// WithBudget sets the round and dice budgets. Non-positive values keep the
// engine defaults.
func WithBudget(rounds, dice int) Option {
	return func(s *settings) {
		if rounds > 0 {
			s.session = append(s.session, engine.WithRoundBudget(rounds))
		}
		if dice > 0 {
			s.session = append(s.session, engine.WithDiceBudget(dice))
		}
	}
}

// WithSessionOptions passes opts to engine.NewSession.
func WithSessionOptions(opts ...engine.SessionOption) Option {
	return func(s *settings) {
		s.session = append(s.session, opts...)
	}
}

// Outcome is a finished evaluation.
type Outcome struct {
	Expression string
	Folded     string
	SessionID  string
	Tree       *render.Node
	Value      engine.Value
	Rounds     int
	Dice       int
	Rolls      []engine.Rolled
}

// Total returns the numeric result, or false when the result is a list.
func (o *Outcome) Total() (float64, bool) {
	return o.Tree.Value.Scalar()
}

// Evaluate compiles src and drives a session over it to completion.
func Evaluate(ctx context.Context, src string, opts ...Option) (*Outcome, error) {
	st := &settings{}
	for _, opt := range opts {
		opt(st)
	}
	if st.roller == nil {
		st.roller = engine.NewRandomRoller()
	}

	n, err := FoldIR(src)
	if err != nil {
		return nil, err
	}
	g, err := compiler.Compile(n)
	if err != nil {
		return nil, err
	}
	s, err := engine.NewSession(g, st.session...)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", src, err)
	}
	var tr engine.Transcript
	tree, err := engine.DriveRecorded(ctx, s, st.roller, &tr)
	if err != nil {
		return nil, err
	}
	v, _ := s.Value()
	return &Outcome{
		Expression: src,
		Folded:     ir.Format(n),
		SessionID:  s.ID(),
		Tree:       tree,
		Value:      v,
		Rounds:     s.Rounds(),
		Dice:       s.DiceRolled(),
		Rolls:      tr.Rolls,
	}, nil
}

// Replay evaluates src again with recorded rolls. It fails when the
// expression asks for different dice than were recorded.
func Replay(ctx context.Context, src string, rolls []engine.Rolled, opts ...Option) (*Outcome, error) {
	replay := engine.NewReplayRoller(rolls)
	out, err := Evaluate(ctx, src, append(opts, WithRoller(replay))...)
	if err != nil {
		if rerr := replay.Err(); rerr != nil && engine.IsProtocolError(err) {
			return nil, fmt.Errorf("replay %q: %w", src, rerr)
		}
		return nil, err
	}
	if rerr := replay.Err(); rerr != nil {
		return nil, fmt.Errorf("replay %q: %w", src, rerr)
	}
	return out, nil
}

// Roll evaluates src and returns its display tree.
func Roll(ctx context.Context, src string, opts ...Option) (*render.Node, error) {
	out, err := Evaluate(ctx, src, opts...)
	if err != nil {
		return nil, err
	}
	return out.Tree, nil
}

package engine

import (
	"errors"
	"log/slog"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/render"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateAwaitingEvaluation State = iota
	StateAwaitingResponses
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingEvaluation:
		return "awaiting_evaluation"
	case StateAwaitingResponses:
		return "awaiting_responses"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Session evaluates one prepared graph under round and dice budgets.
//
// The caller alternates Advance and SubmitResponses:
//
//	AwaitingEvaluation --Advance--> AwaitingResponses --SubmitResponses--> AwaitingEvaluation
//	AwaitingEvaluation --Advance--> Done | Failed
//
// Done and Failed are terminal. Runtime errors and budget violations move
// the session to Failed; calling an operation in the wrong state returns an
// INVALID_STATE error and leaves the session untouched.
//
// Thread-safety: Session is NOT safe for concurrent use.
type Session struct {
	id      string
	g       *graph.Graph
	ctx     *Context
	budget  *Budget
	rollIDs *RollIDs
	state   State
	result  *render.Node
	err     error

	roundBudget int
	diceBudget  int
	idGen       IDGenerator
}

// SessionOption allows configuration of session parameters.
type SessionOption func(*Session)

// WithRoundBudget sets the round budget. A budget of N permits N-1 request
// rounds.
//
// Default: 100 (DefaultRoundBudget)
func WithRoundBudget(rounds int) SessionOption {
	return func(s *Session) {
		s.roundBudget = rounds
	}
}

// WithDiceBudget sets the total number of dice the session may request.
//
// Default: 1000 (DefaultDiceBudget)
func WithDiceBudget(dice int) SessionOption {
	return func(s *Session) {
		s.diceBudget = dice
	}
}

// WithIDGenerator sets the generator of the session id.
// Tests use NewFixedGenerator for stable ids.
func WithIDGenerator(gen IDGenerator) SessionOption {
	return func(s *Session) {
		s.idGen = gen
	}
}

// WithRollIDs sets the roll id allocator shared by the rollers that answer
// this session.
func WithRollIDs(ids *RollIDs) SessionOption {
	return func(s *Session) {
		s.rollIDs = ids
	}
}

// NewSession creates a session over a compiled graph.
func NewSession(g *graph.Graph, opts ...SessionOption) (*Session, error) {
	if g == nil || g.Len() == 0 {
		return nil, errors.New("new session: empty graph")
	}
	s := &Session{
		g:           g,
		roundBudget: DefaultRoundBudget,
		diceBudget:  DefaultDiceBudget,
		idGen:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rollIDs == nil {
		s.rollIDs = NewRollIDs()
	}
	s.id = s.idGen.Generate()
	s.ctx = NewContext(g)
	s.budget = NewBudget(s.roundBudget, s.diceBudget)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Graph returns the graph the session evaluates.
func (s *Session) Graph() *graph.Graph {
	return s.g
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// RollIDs returns the allocator rollers must use for this session.
func (s *Session) RollIDs() *RollIDs {
	return s.rollIDs
}

// Rounds returns the number of request rounds charged so far.
func (s *Session) Rounds() int {
	return s.budget.Rounds()
}

// DiceRolled returns the number of dice requested so far.
func (s *Session) DiceRolled() int {
	return s.budget.Dice()
}

// Err returns the error that failed the session, or nil.
func (s *Session) Err() error {
	return s.err
}

// Advance evaluates the root once.
//
// It ends in Done when the root is computed, in AwaitingResponses when
// dice are needed and the budgets allow them, and in Failed otherwise. The
// error that failed the session is returned and kept for TryTakeResult.
func (s *Session) Advance() error {
	if s.state != StateAwaitingEvaluation {
		return stateError("advance requires state %s, session is %s", StateAwaitingEvaluation, s.state)
	}

	_, ok, err := s.ctx.Eval(s.g.Root)
	if err != nil {
		return s.fail(err)
	}
	if ok {
		s.result = s.ctx.Render()
		s.state = StateDone
		slog.Debug("session done",
			"session", s.id,
			"rounds", s.budget.Rounds(),
			"dice", s.budget.Dice(),
		)
		return nil
	}

	requests := s.ctx.Requests()
	if len(requests) == 0 {
		return s.fail(protocolError("evaluation stalled without requests"))
	}
	if err := s.budget.Check(requests); err != nil {
		var be *BudgetExceededError
		if errors.As(err, &be) {
			return s.fail(NewQuotaError(be))
		}
		return s.fail(err)
	}

	s.state = StateAwaitingResponses
	slog.Debug("session awaiting responses",
		"session", s.id,
		"round", s.budget.Rounds(),
		"requests", len(requests),
	)
	return nil
}

// PendingRequests returns the requests of the current round.
func (s *Session) PendingRequests() ([]Request, error) {
	if s.state != StateAwaitingResponses {
		return nil, stateError("pending requests require state %s, session is %s", StateAwaitingResponses, s.state)
	}
	return s.ctx.Requests(), nil
}

// Removed returns the roll ids dropped or rerolled by the last Advance.
// It is valid until the next SubmitResponses.
func (s *Session) Removed() []RollID {
	return s.ctx.Removed()
}

// SubmitResponses answers the pending requests in order.
//
// A response count that does not match the requests is rejected and the
// session stays in AwaitingResponses. Any per-request mismatch fails the
// session.
func (s *Session) SubmitResponses(responses []Response) error {
	if s.state != StateAwaitingResponses {
		return stateError("submit responses requires state %s, session is %s", StateAwaitingResponses, s.state)
	}
	if n := len(s.ctx.requests); len(responses) != n {
		return protocolError("expected %d responses, got %d", n, len(responses))
	}
	if err := s.ctx.Apply(responses); err != nil {
		return s.fail(err)
	}
	s.state = StateAwaitingEvaluation
	return nil
}

// TryTakeResult returns the display tree once the session is Done, nil
// while it is still running, and the failure error once it has Failed.
func (s *Session) TryTakeResult() (*render.Node, error) {
	switch s.state {
	case StateFailed:
		return nil, s.err
	case StateDone:
		return s.result, nil
	}
	return nil, nil
}

// Value returns the computed root value once the session is Done.
func (s *Session) Value() (Value, bool) {
	if s.state != StateDone {
		return nil, false
	}
	return s.ctx.value(s.g.Root), true
}

func (s *Session) fail(err error) error {
	s.state = StateFailed
	s.err = err
	if IsBudgetExceeded(err) {
		slog.Warn("session budget exceeded", "session", s.id, "error", err)
	} else {
		slog.Error("session failed", "session", s.id, "error", err)
	}
	return err
}

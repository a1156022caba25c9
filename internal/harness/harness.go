package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/store"
	"github.com/roach88/dicegraph/internal/testutil"
)

// logTime is the created_at of every roll a scenario logs.
var logTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the test execution engine.
// It runs scenarios with canned responses and deterministic ids.
type Harness struct {
	store    *store.Store
	sessions engine.IDGenerator
	budgets  Budgets
	logger   *slog.Logger
	seq      int64
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory roll log for isolation.
//
// Execution flow:
// 1. Create fresh in-memory roll log
// 2. Evaluate each step with its canned responses, tracing every request
// 3. Check the step's expect clause and log successful rolls
// 4. Evaluate assertions against the trace and the roll log
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext is Run with a context and a logger. A nil logger discards.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ids := make([]string, len(scenario.Rolls))
	for i := range ids {
		ids[i] = fmt.Sprintf("roll-%03d", i+1)
	}
	st, err := store.Open(":memory:",
		store.WithIDGenerator(engine.NewFixedGenerator(ids...)),
		store.WithClock(func() time.Time { return logTime }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		sessions: testutil.NewFixedIDs(scenario.SessionID),
		logger:   logger,
	}
	if scenario.Budgets != nil {
		h.budgets = *scenario.Budgets
	}

	result := NewResult()
	for i, step := range scenario.Rolls {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("roll step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}

// tracingRoller answers from a script and records each exchange.
type tracingRoller struct {
	h      *Harness
	step   int
	inner  *testutil.ScriptedRoller
	result *Result
}

func (r *tracingRoller) Roll(req engine.Request, ids *engine.RollIDs) engine.Response {
	r.result.AddEvent(TraceEvent{
		Type:  EventRequest,
		Step:  r.step,
		Node:  int(req.Node),
		Face:  req.Face.String(),
		Count: req.Count,
		Seq:   r.h.next(),
	})
	resp := r.inner.Roll(req, ids)
	values := make([]int, len(resp.Results))
	for i, roll := range resp.Results {
		values[i] = roll.Value
	}
	r.result.AddEvent(TraceEvent{
		Type:   EventResponse,
		Step:   r.step,
		Node:   int(req.Node),
		Values: values,
		Seq:    r.h.next(),
	})
	return resp
}

// executeStep evaluates one expression and checks its expect clause.
// Mismatches are recorded on result; the returned error is reserved for
// failures of the harness itself.
func (h *Harness) executeStep(ctx context.Context, i int, step RollStep, result *Result) error {
	script := testutil.NewScriptedRoller(step.Responses...)
	out, err := dice.Evaluate(ctx, step.Expression,
		dice.WithRoller(&tracingRoller{h: h, step: i, inner: script, result: result}),
		dice.WithSessionOptions(engine.WithIDGenerator(h.sessions)),
		dice.WithBudget(h.budgets.Rounds, h.budgets.Dice),
	)
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}

	if err != nil {
		result.AddEvent(TraceEvent{Type: EventError, Step: i, Error: err.Error(), Seq: h.next()})
		switch {
		case expect.Error == "":
			result.AddError(fmt.Sprintf("rolls[%d] %q: unexpected error: %v", i, step.Expression, err))
		case !strings.Contains(err.Error(), expect.Error):
			result.AddError(fmt.Sprintf("rolls[%d] %q: expected error containing %q, got %q", i, step.Expression, expect.Error, err.Error()))
		}
		h.logger.Info("roll step failed", "step", i, "expression", step.Expression, "error", err)
		return nil
	}

	result.AddEvent(TraceEvent{Type: EventResult, Step: i, Explain: out.Tree.Explain(), Seq: h.next()})
	for _, msg := range checkOutcome(out, expect) {
		result.AddError(fmt.Sprintf("rolls[%d] %q: %s", i, step.Expression, msg))
	}
	if err := script.Err(); err != nil {
		result.AddError(fmt.Sprintf("rolls[%d] %q: %v", i, step.Expression, err))
	}
	if n := script.Remaining(); n > 0 {
		result.AddError(fmt.Sprintf("rolls[%d] %q: %d scripted responses unused", i, step.Expression, n))
	}

	logged, err := h.store.WriteRoll(ctx, out)
	if err != nil {
		return err
	}
	h.logger.Info("roll step completed",
		"step", i,
		"expression", step.Expression,
		"roll_id", logged.ID,
		"rounds", out.Rounds,
		"dice", out.Dice,
	)
	return nil
}

// checkOutcome compares out against the fields set in expect.
func checkOutcome(out *dice.Outcome, expect *ExpectClause) []string {
	var errs []string
	if expect.Error != "" {
		errs = append(errs, fmt.Sprintf("expected error containing %q, got %s", expect.Error, out.Tree.Explain()))
	}
	if expect.Explain != "" && out.Tree.Explain() != expect.Explain {
		errs = append(errs, fmt.Sprintf("explain: expected %q, got %q", expect.Explain, out.Tree.Explain()))
	}
	if expect.Folded != "" && out.Folded != expect.Folded {
		errs = append(errs, fmt.Sprintf("folded: expected %q, got %q", expect.Folded, out.Folded))
	}
	if expect.Total != nil {
		total, ok := out.Total()
		if !ok || total != *expect.Total {
			errs = append(errs, fmt.Sprintf("total: expected %v, got %s", *expect.Total, out.Tree.Value))
		}
	}
	if expect.List != nil {
		list, ok := out.Value.(engine.List)
		if !ok || !slices.Equal([]float64(list), expect.List) {
			errs = append(errs, fmt.Sprintf("list: expected %v, got %s", expect.List, out.Tree.Value))
		}
	}
	if expect.Rounds != 0 && out.Rounds != expect.Rounds {
		errs = append(errs, fmt.Sprintf("rounds: expected %d, got %d", expect.Rounds, out.Rounds))
	}
	if expect.Dice != 0 && out.Dice != expect.Dice {
		errs = append(errs, fmt.Sprintf("dice: expected %d, got %d", expect.Dice, out.Dice))
	}
	return errs
}

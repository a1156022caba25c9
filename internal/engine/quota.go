package engine

import (
	"errors"
	"fmt"
)

// Default session budgets.
const (
	DefaultRoundBudget = 100
	DefaultDiceBudget  = 1000
)

// BudgetKind names the budget that ran out.
type BudgetKind string

const (
	BudgetRounds BudgetKind = "rounds"
	BudgetDice   BudgetKind = "dice"
)

// Budget tracks the request rounds and dice a session has used and enforces
// its limits.
//
// A die that explodes on every maximum face can keep a session alive
// forever. The round budget bounds how many request cycles may happen; the
// dice budget bounds how many dice may be requested in total. A modifier's
// own lt/lc limits are separate and end that modifier quietly; exceeding a
// Budget ends the whole session.
type Budget struct {
	rounds    int // remaining round allowance
	dice      int // remaining dice allowance
	maxRounds int
	maxDice   int
	usedDice  int
	cycles    int
}

// NewBudget creates a budget with the given limits.
func NewBudget(rounds, dice int) *Budget {
	return &Budget{
		rounds:    rounds,
		dice:      dice,
		maxRounds: rounds,
		maxDice:   dice,
	}
}

// Check charges one request cycle asking for the given requests.
//
// A round budget of N permits N-1 request cycles: the cycle is refused when
// the remaining allowance is 1 or less. The dice budget is refused when the
// cycle asks for more dice than remain. Nothing is charged when Check fails.
func (b *Budget) Check(requests []Request) error {
	if b.rounds <= 1 {
		return &BudgetExceededError{
			Kind:      BudgetRounds,
			Limit:     b.maxRounds,
			Requested: 1,
			Remaining: max(b.rounds-1, 0),
		}
	}
	n := 0
	for _, r := range requests {
		n += r.Count
	}
	if n > b.dice {
		return &BudgetExceededError{
			Kind:      BudgetDice,
			Limit:     b.maxDice,
			Requested: n,
			Remaining: b.dice,
		}
	}
	b.rounds--
	b.dice -= n
	b.usedDice += n
	b.cycles++
	return nil
}

// Rounds returns the number of request cycles charged so far.
func (b *Budget) Rounds() int {
	return b.cycles
}

// Dice returns the number of dice charged so far.
func (b *Budget) Dice() int {
	return b.usedDice
}

// BudgetExceededError is returned when a session exceeds a budget.
//
// This error terminates the session. There is no partial result.
type BudgetExceededError struct {
	Kind      BudgetKind // Which budget ran out
	Limit     int        // Configured limit
	Requested int        // Rounds or dice the refused cycle asked for
	Remaining int        // Allowance left when the cycle was refused
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	if e.Kind == BudgetRounds {
		return fmt.Sprintf("round budget exceeded: limit %d", e.Limit)
	}
	return fmt.Sprintf("dice budget exceeded: requested %d with %d of %d remaining",
		e.Requested, e.Remaining, e.Limit)
}

// IsBudgetExceededError returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceededError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}

package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dicegraph/internal/ir"
)

func c(v float64) *ir.Constant { return &ir.Constant{Value: v} }

func d(count, sides float64) *ir.StandardDice {
	return &ir.StandardDice{Count: c(count), Sides: c(sides)}
}

func add(l, r ir.Number) *ir.Arith { return &ir.Arith{Op: ir.Add, LHS: l, RHS: r} }
func sub(l, r ir.Number) *ir.Arith { return &ir.Arith{Op: ir.Subtract, LHS: l, RHS: r} }
func mul(l, r ir.Number) *ir.Arith { return &ir.Arith{Op: ir.Multiply, LHS: l, RHS: r} }
func div(l, r ir.Number) *ir.Arith { return &ir.Arith{Op: ir.Divide, LHS: l, RHS: r} }

func list(items ...ir.Number) *ir.Explicit { return &ir.Explicit{Items: items} }

// TestFold tests folding results by their formatted output.
func TestFold(t *testing.T) {
	tests := []struct {
		name string
		node ir.Node
		want string
	}{
		{"arithmetic", add(c(2), mul(c(3), c(4))), "14"},
		{"left chain", sub(sub(c(10), c(2)), c(3)), "5"},
		{"int divide", sub(&ir.Arith{Op: ir.IntDivide, LHS: c(10), RHS: c(2)}, c(3)), "2"},
		{"merge dice", add(d(2, 6), d(2, 6)), "4d6"},
		{"constant last", add(add(d(1, 20), c(5)), c(3)), "1d20+8"},
		{"negated first", add(&ir.Neg{X: d(1, 6)}, d(2, 6)), "2d6-1d6"},
		{"negated kept first", add(&ir.Neg{X: d(1, 6)}, c(1)), "-(1d6)+1"},
		{
			"sign and size ordering",
			sub(add(sub(add(add(c(1), d(1, 6)), d(1, 6)), d(1, 8)), d(1, 8)), c(2)),
			"1d8+2d6-1d8-1",
		},
		{
			"modified pools not merged",
			add(
				&ir.Select{Op: ir.KeepHigh, Pool: d(2, 6), N: c(1)},
				&ir.Select{Op: ir.KeepHigh, Pool: d(3, 6), N: c(1)},
			),
			"2d6kh1+3d6kh1",
		},
		{
			"fudge and coin",
			sub(sub(add(add(add(&ir.FudgeDice{Count: c(1)}, &ir.FudgeDice{Count: c(1)}),
				&ir.CoinDice{Count: c(1)}), &ir.CoinDice{Count: c(1)}),
				&ir.FudgeDice{Count: c(1)}), &ir.CoinDice{Count: c(1)}),
			"2dC-1dC+2dF-1dF",
		},
		{"zero pools vanish", add(add(c(1), d(0, 6)), sub(d(0, 8), c(2))), "-1"},
		{"times one", mul(d(1, 6), c(1)), "1d6"},
		{"times zero", mul(d(1, 6), c(0)), "0"},
		{"product constant last", mul(mul(mul(c(3), c(2)), d(1, 6)), c(1)), "1d6*6"},
		{"product keeps dice", mul(mul(mul(mul(c(3), c(2)), d(1, 6)), d(2, 6)), c(1)), "1d6*2d6*6"},
		{"divide by one", div(d(1, 6), c(1)), "1d6"},
		{"nested divide", div(div(d(1, 6), c(2)), c(3)), "1d6/6"},
		{
			"long divide chain",
			div(div(div(div(&ir.StandardDice{Count: mul(c(2), c(60)), Sides: c(6)}, c(2)), c(3)), c(4)), c(5)),
			"120d6/120",
		},
		{"truncate count", &ir.StandardDice{Count: div(c(5), c(2)), Sides: c(6)}, "2d6"},
		{"truncate sides", d(6, 2.7), "6d2"},
		{"no sides", d(6, 0), "0"},
		{"negative sides", &ir.StandardDice{Count: c(6), Sides: &ir.Neg{X: c(1)}}, "0"},
		{"coin truncate", &ir.CoinDice{Count: c(6.6)}, "6dC"},
		{"negative fudge", &ir.FudgeDice{Count: &ir.Neg{X: c(1)}}, "0"},
		{"nested pool untouched", &ir.StandardDice{Count: d(1, 6), Sides: d(1, 20)}, "(1d6)d(1d20)"},
		{
			"keep param folds",
			&ir.Select{Op: ir.KeepHigh, Pool: d(10, 6), N: add(c(1), c(1))},
			"10d6kh2",
		},
		{"max of list", &ir.Aggregate{Fn: ir.Max, List: list(add(c(2), c(3)), mul(c(4), c(2)))}, "8"},
		{"avg empty", &ir.Aggregate{Fn: ir.Avg, List: list()}, "0"},
		{"sum empty", &ir.Aggregate{Fn: ir.Sum, List: list()}, "0"},
		{
			"sum of dice merges",
			&ir.Aggregate{Fn: ir.Sum, List: &ir.Concat{LHS: list(d(1, 8), d(2, 8), d(3, 8)), RHS: list(d(4, 6), d(5, 6))}},
			"6d8+9d6",
		},
		{"len of dice list", &ir.Aggregate{Fn: ir.Len, List: list(d(1, 8), d(2, 8))}, "2"},
		{"round list", &ir.ListFunc{Fn: ir.ListRound, List: list(c(1.2), c(2.5), c(3.7))}, "[1,3,4]"},
		{"sort desc", &ir.ListFunc{Fn: ir.SortDesc, List: list(c(3), c(1), c(4), c(2))}, "[4,3,2,1]"},
		{"pick", &ir.Pick{Highest: true, List: list(c(1), c(2), c(5), c(4), c(3)), K: sub(c(4), c(2))}, "[5,4]"},
		{"pick zero", &ir.Pick{Highest: true, List: list(c(1), c(2)), K: c(0)}, "[]"},
		{
			"pick with dice stays",
			&ir.Pick{Highest: true, List: list(c(1), d(1, 6)), K: c(2)},
			"max([1,1d6],2)",
		},
		{
			"filter",
			&ir.Filter{List: list(c(1), c(2), c(3)), Param: ir.ModParam{Op: ir.NotEqual, Value: c(3)}},
			"[1,2]",
		},
		{
			"filter with dice param stays",
			&ir.Filter{List: list(c(1), c(2)), Param: ir.ModParam{Op: ir.Equal, Value: d(1, 6)}},
			"filter=(1d6)([1,2])",
		},
		{"broadcast divide", &ir.Broadcast{Op: ir.Divide, List: list(c(1), c(2), c(3)), Number: c(2)}, "[0.5,1,1.5]"},
		{
			"reverse modulo",
			&ir.Broadcast{Op: ir.Modulo, List: list(c(1), c(2), c(3)), Number: c(6), Reverse: true},
			"[0,0,0]",
		},
		{
			"broadcast with dice stays",
			&ir.Broadcast{Op: ir.Multiply, List: list(c(1), c(2)), Number: d(1, 6)},
			"[1,2]*1d6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fold(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ir.Format(got))
		})
	}
}

// TestFold_Errors tests fold-time arithmetic errors.
func TestFold_Errors(t *testing.T) {
	tests := []struct {
		name string
		node ir.Node
		code FoldErrorCode
		msg  string
	}{
		{"divide", div(c(2), c(0)), ErrCodeDivisionByZero, "division by zero"},
		{"int divide", &ir.Arith{Op: ir.IntDivide, LHS: c(2), RHS: c(0)}, ErrCodeDivisionByZero, "division by zero"},
		{"modulo", &ir.Arith{Op: ir.Modulo, LHS: d(1, 6), RHS: c(0)}, ErrCodeDivisionByZero, "division by zero"},
		{"nested", div(div(d(1, 6), c(2)), c(0)), ErrCodeDivisionByZero, "division by zero"},
		{"dice count", &ir.StandardDice{Count: div(c(1), c(0)), Sides: c(6)}, ErrCodeDivisionByZero, "division by zero"},
		{
			"list divide",
			&ir.Broadcast{Op: ir.Divide, List: list(d(1, 6)), Number: c(0)},
			ErrCodeDivisionByZero, "division by zero",
		},
		{
			"reverse list divide",
			&ir.Broadcast{Op: ir.Divide, List: list(c(1), c(2), c(0)), Number: c(2), Reverse: true},
			ErrCodeDivisionByZero, "division by zero in reverse list division at index 2",
		},
		{"max empty", &ir.Aggregate{Fn: ir.Max, List: list()}, ErrCodeEmptyList, "max of empty list"},
		{"min empty", &ir.Aggregate{Fn: ir.Min, List: list()}, ErrCodeEmptyList, "min of empty list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fold(tt.node)
			require.Error(t, err)
			var fe *FoldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.code, fe.Code)
			assert.Equal(t, tt.msg, fe.Message)
		})
	}

	assert.True(t, IsDivisionByZero(divisionByZero()))
	assert.False(t, IsDivisionByZero(&FoldError{Code: ErrCodeEmptyList}))
}

// TestFold_Idempotent tests that folding a folded tree changes nothing.
func TestFold_Idempotent(t *testing.T) {
	trees := []func() ir.Node{
		func() ir.Node { return add(&ir.Neg{X: d(1, 6)}, d(2, 6)) },
		func() ir.Node { return add(&ir.Neg{X: d(1, 6)}, c(1)) },
		func() ir.Node { return mul(mul(c(3), d(1, 6)), d(2, 6)) },
		func() ir.Node { return div(div(d(1, 6), c(2)), c(3)) },
		func() ir.Node { return sub(add(d(1, 8), &ir.FudgeDice{Count: c(2)}), c(4)) },
		func() ir.Node {
			return &ir.Broadcast{Op: ir.Subtract, List: list(c(1), d(1, 4)), Number: d(2, 10), Reverse: true}
		},
	}

	for _, build := range trees {
		once, changed, err := FoldChanged(build())
		require.NoError(t, err)
		_ = changed

		twice, changed, err := FoldChanged(once)
		require.NoError(t, err)
		assert.False(t, changed, "second fold of %s changed the tree", ir.Format(once))
		assert.Equal(t, ir.Format(once), ir.Format(twice))
	}
}

// TestFoldChanged tests change reporting.
func TestFoldChanged(t *testing.T) {
	_, changed, err := FoldChanged(add(c(1), c(2)))
	require.NoError(t, err)
	assert.True(t, changed)

	_, changed, err = FoldChanged(d(1, 6))
	require.NoError(t, err)
	assert.False(t, changed)
}

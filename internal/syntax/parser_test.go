package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v float64) *Number { return &Number{Value: v} }

func d(count, sides Expr) *Dice {
	return &Dice{Kind: DiceStandard, Count: count, Sides: sides}
}

// TestParse_Arithmetic tests operator precedence and associativity.
func TestParse_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Expr
	}{
		{"number", "42", num(42)},
		{"decimal", "2.5", num(2.5)},
		{"leading dot", ".5", num(0.5)},
		{
			"product binds tighter",
			"2 + 3 * 4",
			&Binary{Op: OpAdd, LHS: num(2), RHS: &Binary{Op: OpMul, LHS: num(3), RHS: num(4)}},
		},
		{
			"left associative",
			"10 - 2 - 3",
			&Binary{Op: OpSub, LHS: &Binary{Op: OpSub, LHS: num(10), RHS: num(2)}, RHS: num(3)},
		},
		{
			"int divide and modulo",
			"7 // 2 % 3",
			&Binary{Op: OpMod, LHS: &Binary{Op: OpIntDiv, LHS: num(7), RHS: num(2)}, RHS: num(3)},
		},
		{
			"repeat",
			"[1]**3",
			&Binary{Op: OpRepeat, LHS: &List{Items: []Expr{num(1)}}, RHS: num(3)},
		},
		{
			"negation of parens",
			"1-(-2)",
			&Binary{Op: OpSub, LHS: num(1), RHS: &Neg{X: num(2)}},
		},
		{"unary plus dropped", "+3", num(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParse_Dice tests base dice forms.
func TestParse_Dice(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Expr
	}{
		{"standard", "2d6", d(num(2), num(6))},
		{"implicit count", "d20", d(num(1), num(20))},
		{"upper case", "2D6", d(num(2), num(6))},
		{"fudge", "6df", &Dice{Kind: DiceFudge, Count: num(6)}},
		{"fudge upper", "dF", &Dice{Kind: DiceFudge, Count: num(1)}},
		{"coin", "6.6dc", &Dice{Kind: DiceCoin, Count: num(6.6)}},
		{"nested", "(1d6)d(1d20)", d(d(num(1), num(6)), d(num(1), num(20)))},
		{"list count", "[1,2]d6", d(&List{Items: []Expr{num(1), num(2)}}, num(6))},
		{"negated", "-1d6", &Neg{X: d(num(1), num(6))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParse_Modifiers tests postfix modifiers and their parameters.
func TestParse_Modifiers(t *testing.T) {
	pool := d(num(10), num(6))

	tests := []struct {
		name string
		src  string
		want Expr
	}{
		{"keep high default", "10d6kh", &CountModifier{Op: KeepHigh, X: pool, N: num(1)}},
		{
			"keep high expr",
			"10d6kh(1+1)",
			&CountModifier{Op: KeepHigh, X: pool, N: &Binary{Op: OpAdd, LHS: num(1), RHS: num(1)}},
		},
		{"drop low", "10d6dl2", &CountModifier{Op: DropLow, X: pool, N: num(2)}},
		{"clamp max", "10d6max5", &CountModifier{Op: ClampMax, X: pool, N: num(5)}},
		{"explode bare", "10d6!", &RollModifier{Op: Explode, X: pool}},
		{"compound", "10d6!!", &RollModifier{Op: CompoundExplode, X: pool}},
		{
			"explode with limits",
			"10d6!<3lt3lc10",
			&RollModifier{
				Op:    Explode,
				X:     pool,
				Param: &Compare{Op: CmpLess, Value: num(3)},
				Limit: &Limit{Times: num(3), Counts: num(10)},
			},
		},
		{
			"reroll limits reversed",
			"10d6r1lc2lt4",
			&RollModifier{
				Op:    Reroll,
				X:     pool,
				Param: &Compare{Op: CmpEqual, Value: num(1)},
				Limit: &Limit{Times: num(4), Counts: num(2)},
			},
		},
		{
			"success then deduct",
			"10d6cs>3df=1",
			&CompareModifier{
				Op:    DeductFailures,
				X:     &CompareModifier{Op: CountSuccesses, X: pool, Param: Compare{Op: CmpGreater, Value: num(3)}},
				Param: Compare{Op: CmpEqual, Value: num(1)},
			},
		},
		{
			"subtract failures",
			"10d6sf<=2",
			&CompareModifier{Op: SubtractFailures, X: pool, Param: Compare{Op: CmpLessEqual, Value: num(2)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParse_Calls tests function calls including filter.
func TestParse_Calls(t *testing.T) {
	got, err := Parse("max(2 + 3, 4 * 2)")
	require.NoError(t, err)
	call, ok := got.(*Call)
	require.True(t, ok)
	assert.Equal(t, FuncMax, call.Fn)
	assert.Len(t, call.Args, 2)

	got, err = Parse("SORTD([3,1])")
	require.NoError(t, err)
	assert.Equal(t, FuncSortDesc, got.(*Call).Fn)

	got, err = Parse("filter<>3([1,2,3])")
	require.NoError(t, err)
	call = got.(*Call)
	assert.Equal(t, FuncFilter, call.Fn)
	require.NotNil(t, call.Filter)
	assert.Equal(t, CmpNotEqual, call.Filter.Op)
	assert.Equal(t, num(3), call.Filter.Value)

	got, err = Parse("avg([])")
	require.NoError(t, err)
	assert.Equal(t, []Expr{&List{}}, got.(*Call).Args)
}

// TestParse_Errors tests that malformed input reports a ParseError.
func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		"(1",
		"[1,2",
		"foo(1)",
		"2d6 3",
		"10d6cs",
		"10d6r",
		"filter([1,2])",
		"1d6!lt",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

// TestParseError_Error tests error message formatting.
func TestParseError_Error(t *testing.T) {
	err := &ParseError{Offset: 3, Msg: "unexpected \")\""}
	assert.Equal(t, "syntax error at 3: unexpected \")\"", err.Error())
}

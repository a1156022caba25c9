package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/lower"
	"github.com/roach88/dicegraph/internal/optimizer"
	"github.com/roach88/dicegraph/internal/syntax"
)

func compileString(t *testing.T, src string) *graph.Graph {
	t.Helper()
	expr, err := syntax.Parse(src)
	require.NoError(t, err)
	n, err := lower.Lower(expr)
	require.NoError(t, err)
	n, err = optimizer.Fold(n)
	require.NoError(t, err)
	g, err := Compile(n)
	require.NoError(t, err)
	return g
}

// TestCompile tests node layout for representative expressions.
func TestCompile(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"7", "0: Constant 7\n"},
		{
			"2d6+1",
			"0: Constant 2\n1: Constant 6\n2: DiceStandard #0 #1\n3: Constant 1\n4: NumAdd #2 #3\n",
		},
		{
			"4d6kh3",
			"0: Constant 4\n1: Constant 6\n2: DiceStandard #0 #1\n3: Constant 3\n4: DiceKeepHigh #2 #3\n",
		},
		{
			"3d6!>5lt2lc4",
			"0: Constant 3\n1: Constant 6\n2: DiceStandard #0 #1\n3: Constant 5\n4: Constant 2\n5: Constant 4\n" +
				"6: DiceExplode #2 >#3 lt#4 lc#5\n",
		},
		{
			"2dF!",
			"0: Constant 2\n1: DiceFudge #0\n2: DiceExplode #1\n",
		},
		{
			"5d10cs>7df1",
			"0: Constant 5\n1: Constant 10\n2: DiceStandard #0 #1\n3: Constant 7\n" +
				"4: DiceCountSuccessesFromPool #2 >#3\n5: Constant 1\n6: DiceDeductFailures #4 =#5\n",
		},
		{
			"1d6 - [1,2]",
			"0: Constant 1\n1: Constant 6\n2: DiceStandard #0 #1\n3: Constant 1\n4: Constant 2\n" +
				"5: ListConstruct #3 #4\n6: ListSubtractReverse #2 #5\n",
		},
		{
			"[1d4,2] * 1d6",
			"0: Constant 1\n1: Constant 4\n2: DiceStandard #0 #1\n3: Constant 2\n4: ListConstruct #2 #3\n" +
				"5: Constant 1\n6: Constant 6\n7: DiceStandard #5 #6\n8: ListMultiply #4 #7\n",
		},
		{
			"max(tolist(3d6), 2)",
			"0: Constant 3\n1: Constant 6\n2: DiceStandard #0 #1\n3: ListFromDicePool #2\n4: Constant 2\n5: ListMax #3 #4\n",
		},
		{
			"filter>1(tolist(2d4))",
			"0: Constant 2\n1: Constant 4\n2: DiceStandard #0 #1\n3: ListFromDicePool #2\n4: Constant 1\n5: ListFilter #3 >#4\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			g := compileString(t, tt.src)
			assert.Equal(t, tt.want, g.String())
			assert.Empty(t, g.Validate())
		})
	}
}

// TestCompile_PostOrder tests graph invariants over a larger expression set.
func TestCompile_PostOrder(t *testing.T) {
	sources := []string{
		"10d6!kh3r<3",
		"floor(avg(tolist(4d6dl1)) / 2) + sum([1d4, 2d4]) - 1d8!!",
		"len(sort(tolist(6d6r1lt1)) + [1,2,3])",
		"2d20kl1 // 3 % 2",
		"(1d4)d(1d6)min2max5",
		"10d10sf1cs>=8",
		"round([1.5, 1d6] / 2)",
		"6 // [1d6, 2]",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			g := compileString(t, src)
			require.Empty(t, g.Validate())
			assert.Equal(t, graph.NodeID(g.Len()-1), g.Root)
		})
	}
}

// TestCompile_NoSharing tests that repeated sub-trees compile separately.
func TestCompile_NoSharing(t *testing.T) {
	g := compileString(t, "[1d6] * 3")
	bases := 0
	for _, n := range g.Nodes {
		if n.Kind == graph.DiceStandard {
			bases++
		}
	}
	assert.Equal(t, 3, bases)
	assert.Empty(t, g.Validate())
}

type bogus struct{ ir.Constant }

// TestCompile_Unsupported tests the error for foreign node types.
func TestCompile_Unsupported(t *testing.T) {
	_, err := Compile(&ir.Neg{X: &bogus{}})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "unsupported node", ce.Message)
}

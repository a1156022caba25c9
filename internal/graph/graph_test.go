package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dicegraph/internal/ir"
)

// sample builds 2d6!>5lt1 + 3.
func sample() *Graph {
	g := &Graph{}
	count := g.Add(Node{Kind: Constant, Value: 2})
	sides := g.Add(Node{Kind: Constant, Value: 6})
	pool := g.Add(Node{Kind: DiceStandard, Args: []NodeID{count, sides}})
	five := g.Add(Node{Kind: Constant, Value: 5})
	one := g.Add(Node{Kind: Constant, Value: 1})
	explode := g.Add(Node{
		Kind:  DiceExplode,
		Args:  []NodeID{pool},
		Param: &ModParam{Op: ir.Greater, Value: five},
		Limit: &Limit{Times: one, Counts: NoNode},
	})
	three := g.Add(Node{Kind: Constant, Value: 3})
	g.Add(Node{Kind: NumAdd, Args: []NodeID{explode, three}})
	return g
}

// TestGraph_Add tests id allocation and root tracking.
func TestGraph_Add(t *testing.T) {
	g := sample()
	assert.Equal(t, 8, g.Len())
	assert.Equal(t, NodeID(7), g.Root)
	assert.Equal(t, NumAdd, g.Node(g.Root).Kind)
	assert.Equal(t, []NodeID{2, 3, 4}, g.Node(5).Children())
}

// TestGraph_Validate tests that a well-formed graph has no violations.
func TestGraph_Validate(t *testing.T) {
	assert.Empty(t, sample().Validate())
}

// TestGraph_ValidateViolations tests each invariant in isolation.
func TestGraph_ValidateViolations(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Graph
		code  string
	}{
		{"empty", func() *Graph { return &Graph{} }, ErrEmpty},
		{"root", func() *Graph {
			g := sample()
			g.Root = 5
			return g
		}, ErrRoot},
		{"kind", func() *Graph {
			g := &Graph{}
			g.Add(Node{Kind: Kind(999)})
			return g
		}, ErrKind},
		{"arity", func() *Graph {
			g := &Graph{}
			c := g.Add(Node{Kind: Constant, Value: 1})
			g.Add(Node{Kind: NumAdd, Args: []NodeID{c}})
			return g
		}, ErrArity},
		{"order", func() *Graph {
			g := &Graph{}
			g.Add(Node{Kind: NumNegate, Args: []NodeID{1}})
			g.Add(Node{Kind: Constant, Value: 1})
			return g
		}, ErrOrder},
		{"shared", func() *Graph {
			g := &Graph{}
			c := g.Add(Node{Kind: Constant, Value: 1})
			g.Add(Node{Kind: NumAdd, Args: []NodeID{c, c}})
			return g
		}, ErrShared},
		{"unused", func() *Graph {
			g := &Graph{}
			g.Add(Node{Kind: Constant, Value: 1})
			g.Add(Node{Kind: Constant, Value: 2})
			return g
		}, ErrUnused},
		{"missing param", func() *Graph {
			g := &Graph{}
			c := g.Add(Node{Kind: Constant, Value: 1})
			s := g.Add(Node{Kind: Constant, Value: 6})
			p := g.Add(Node{Kind: DiceStandard, Args: []NodeID{c, s}})
			g.Add(Node{Kind: DiceReroll, Args: []NodeID{p}})
			return g
		}, ErrParam},
		{"limit not allowed", func() *Graph {
			g := &Graph{}
			c := g.Add(Node{Kind: Constant, Value: 1})
			g.Add(Node{Kind: DiceCoin, Args: []NodeID{c}, Limit: &Limit{Times: NoNode, Counts: NoNode}})
			return g
		}, ErrLimit},
		{"limit empty", func() *Graph {
			g := &Graph{}
			c := g.Add(Node{Kind: Constant, Value: 1})
			p := g.Add(Node{Kind: DiceCoin, Args: []NodeID{c}})
			g.Add(Node{Kind: DiceExplode, Args: []NodeID{p}, Limit: &Limit{Times: NoNode, Counts: NoNode}})
			return g
		}, ErrLimitNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.build().Validate()
			require.NotEmpty(t, errs)
			codes := make([]string, len(errs))
			for i, e := range errs {
				codes[i] = e.Code
			}
			assert.Contains(t, codes, tt.code)
		})
	}
}

// TestGraph_String tests the line-per-node dump.
func TestGraph_String(t *testing.T) {
	want := "0: Constant 2\n" +
		"1: Constant 6\n" +
		"2: DiceStandard #0 #1\n" +
		"3: Constant 5\n" +
		"4: Constant 1\n" +
		"5: DiceExplode #2 >#3 lt#4\n" +
		"6: Constant 3\n" +
		"7: NumAdd #5 #6\n"
	assert.Equal(t, want, sample().String())
}

// TestGraph_Encode tests the canonical JSON dump.
func TestGraph_Encode(t *testing.T) {
	g := &Graph{}
	c := g.Add(Node{Kind: Constant, Value: 1.5})
	g.Add(Node{Kind: NumNegate, Args: []NodeID{c}})

	data, err := ir.MarshalCanonical(g.Encode())
	require.NoError(t, err)
	assert.Equal(t,
		`{"nodes":[{"id":0,"kind":"Constant","value":1.5},{"args":[0],"id":1,"kind":"NumNegate"}],"root":1}`,
		string(data))
}

// TestKind_String tests kind names.
func TestKind_String(t *testing.T) {
	assert.Equal(t, "DiceCountSuccessesFromPool", DiceCountSuccessesFromPool.String())
	assert.Equal(t, "Unknown", Kind(-1).String())
	assert.True(t, DiceFudge.IsDiceBase())
	assert.False(t, DiceKeepHigh.IsDiceBase())
	assert.True(t, DiceReroll.IsDynamic())
}

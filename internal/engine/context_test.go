package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/render"
)

func rolls(values ...int) Response {
	out := make([]Roll, len(values))
	for i, v := range values {
		out[i] = Roll{Value: v, ID: RollID(i + 1)}
	}
	return Response{Results: out}
}

// TestContext_EvalMemoizes tests that computed nodes are not recomputed.
func TestContext_EvalMemoizes(t *testing.T) {
	c := NewContext(prepare(t, "2d6+3"))

	_, ok, err := c.Eval(4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, c.Requests(), 1)

	require.NoError(t, c.Apply([]Response{rolls(1, 2)}))
	assert.Empty(t, c.Requests(), "apply clears the requests")

	v, ok, err := c.Eval(4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Number(6), v)

	again, ok, err := c.Eval(4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, v, again)
	assert.Empty(t, c.Requests(), "a computed node asks for nothing")
}

// TestContext_BaseDice tests the degenerate base pools that need no dice.
func TestContext_BaseDice(t *testing.T) {
	tests := []struct {
		name string
		g    *graph.Graph
		face Face
	}{
		{"zero sides", diceGraph(3, 0), Numbered(0)},
		{"negative sides", diceGraph(3, -2), Numbered(0)},
		{"zero count", diceGraph(0, 6), Numbered(6)},
		{"fractional count truncates to zero", diceGraph(0.9, 6), Numbered(6)},
		{"negative count", diceGraph(-4, 6), Numbered(6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(tt.g)
			v, ok, err := c.Eval(tt.g.Root)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, &DicePool{Face: tt.face}, v)
			assert.Empty(t, c.Requests())
		})
	}

	t.Run("fractional sides truncate", func(t *testing.T) {
		g := diceGraph(2.7, 6.9)
		c := NewContext(g)
		_, ok, err := c.Eval(g.Root)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []Request{{Node: 2, Face: Numbered(6), Count: 2}}, c.Requests())
	})
}

// diceGraph builds count d sides from raw constants, bypassing folding.
func diceGraph(count, sides float64) *graph.Graph {
	g := &graph.Graph{}
	c := g.Add(graph.Node{Kind: graph.Constant, Value: count})
	s := g.Add(graph.Node{Kind: graph.Constant, Value: sides})
	g.Add(graph.Node{Kind: graph.DiceStandard, Args: []graph.NodeID{c, s}})
	return g
}

// TestContext_ApplyErrors tests responses that do not fit the requests.
func TestContext_ApplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Context)
		resp  []Response
		msg   string
	}{
		{
			name: "response count",
			resp: []Response{rolls(1, 2), rolls(3)},
			msg:  "expected 1 responses, got 2",
		},
		{
			name: "roll count",
			resp: []Response{rolls(1)},
			msg:  "expected 2 rolls, got 1",
		},
		{
			name:  "computed node",
			setup: func(c *Context) { c.requests[0].Node = 0 },
			resp:  []Response{rolls(1, 2)},
			msg:   "response for already computed node",
		},
		{
			name:  "non-dice node",
			setup: func(c *Context) { c.requests[0].Node = 4 },
			resp:  []Response{rolls(1, 2)},
			msg:   "response for non-dice node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(prepare(t, "2d6+3"))
			_, _, err := c.Eval(4)
			require.NoError(t, err)
			if tt.setup != nil {
				tt.setup(c)
			}

			err = c.Apply(tt.resp)
			require.Error(t, err)
			assert.True(t, IsProtocolError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

// TestContext_MissingRoll tests resuming a dynamic node before its dice
// arrived.
func TestContext_MissingRoll(t *testing.T) {
	g := prepare(t, "1d6!")
	c := NewContext(g)

	_, _, err := c.Eval(g.Root)
	require.NoError(t, err)
	require.NoError(t, c.Apply([]Response{rolls(6)}))

	_, ok, err := c.Eval(g.Root)
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = c.Eval(g.Root)
	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
	assert.Contains(t, err.Error(), "missing roll")
}

// TestContext_SourcePoolUnchanged tests that modifiers never mutate the pool
// they read, so the display tree can still show it.
func TestContext_SourcePoolUnchanged(t *testing.T) {
	g := prepare(t, "4d6kh1!")
	c := NewContext(g)

	_, _, err := c.Eval(g.Root)
	require.NoError(t, err)
	require.NoError(t, c.Apply([]Response{rolls(6, 2, 6, 1)}))
	_, ok, err := c.Eval(g.Root)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Apply([]Response{{Results: []Roll{{Value: 3, ID: 5}}}}))
	v, ok, err := c.Eval(g.Root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, v.(*DicePool).Total)

	base := c.value(2).(*DicePool)
	assert.Len(t, base.Details, 4)
	assert.Equal(t, 15, base.Total)

	kept := c.value(4).(*DicePool)
	assert.Len(t, kept.Details, 4)
	assert.Equal(t, 0, kept.Details[0].Exploded)
}

// TestContext_Values tests the display summaries of the memory.
func TestContext_Values(t *testing.T) {
	g := prepare(t, "2d6+3")
	c := NewContext(g)
	_, _, err := c.Eval(g.Root)
	require.NoError(t, err)

	values := c.Values()
	require.Len(t, values, 5)
	assert.Equal(t, render.KindNumber, values[0].Kind)
	assert.Equal(t, render.KindNotComputed, values[2].Kind)
	assert.Equal(t, render.KindNotComputed, values[4].Kind)

	require.NoError(t, c.Apply([]Response{rolls(1, 2)}))
	_, _, err = c.Eval(g.Root)
	require.NoError(t, err)

	values = c.Values()
	assert.Equal(t, render.KindDicePool, values[2].Kind)
	assert.Equal(t, 3, values[2].Total)
	assert.Equal(t, "2d6 [1 2] + 3 = 6", c.Render().Explain())
}

// TestTrunc tests truncation toward zero with capped magnitudes.
func TestTrunc(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{2.9, 2},
		{-2.9, -2},
		{0, 0},
		{1e300, maxCount},
		{-1e300, -maxCount},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, trunc(tt.in), "trunc(%v)", tt.in)
	}
}

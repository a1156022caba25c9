package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRandomRoller_Ranges tests that every face rolls within its bounds.
func TestRandomRoller_Ranges(t *testing.T) {
	faces := []Face{Numbered(1), Numbered(6), Numbered(100), {Kind: FaceFudge}, {Kind: FaceCoin}}
	r := NewRandomRoller()
	ids := NewRollIDs()

	for _, f := range faces {
		t.Run(f.String(), func(t *testing.T) {
			resp := r.Roll(Request{Face: f, Count: 5000}, ids)
			require.Len(t, resp.Results, 5000)
			seen := map[int]bool{}
			for _, roll := range resp.Results {
				assert.GreaterOrEqual(t, roll.Value, f.Min())
				assert.LessOrEqual(t, roll.Value, f.Max())
				seen[roll.Value] = true
			}
			assert.Len(t, seen, f.Max()-f.Min()+1, "every face shows up")
		})
	}
}

// TestRandomRoller_IDs tests that roll ids come from the allocator in order.
func TestRandomRoller_IDs(t *testing.T) {
	ids := NewRollIDsAt(10)
	resp := NewSeededRoller(1).Roll(Request{Face: Numbered(6), Count: 3}, ids)
	for i, roll := range resp.Results {
		assert.Equal(t, RollID(11+i), roll.ID)
	}
}

// TestSeededRoller_Deterministic tests that a seed fixes the sequence.
func TestSeededRoller_Deterministic(t *testing.T) {
	req := Request{Face: Numbered(20), Count: 20}
	a := NewSeededRoller(7).Roll(req, NewRollIDs())
	b := NewSeededRoller(7).Roll(req, NewRollIDs())
	c := NewSeededRoller(8).Roll(req, NewRollIDs())

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

// TestDrive tests driving a session with the random roller.
func TestDrive(t *testing.T) {
	s := newSession(t, "4d6kh3 + 1d8!")
	node, err := Drive(context.Background(), s, NewSeededRoller(3))
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "4d6kh3+1d8!", node.String())

	total, ok := node.Value.Scalar()
	require.True(t, ok)
	assert.GreaterOrEqual(t, total, 4.0)
	assert.Equal(t, StateDone, s.State())
}

package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/queryir"
)

// TestWriteRoll tests the stored row of an evaluation.
func TestWriteRoll(t *testing.T) {
	s := createTestStore(t)

	r := writeTestRoll(t, s, "4d6kh3 + 2", 3, 1, 6, 4)
	assert.Equal(t, "roll-01", r.ID)
	assert.Equal(t, "session-1", r.SessionID)
	assert.Equal(t, int64(1), r.Seq)
	assert.Equal(t, "4d6kh3+2", r.Folded)
	require.NotNil(t, r.Total)
	assert.Equal(t, 15.0, *r.Total)
	assert.Equal(t, 1, r.Rounds)
	assert.Equal(t, 4, r.DiceCount)
	assert.Equal(t, ir.EngineVersion, r.EngineVersion)
	assert.Equal(t, testTime, r.CreatedAt)
	assert.Equal(t, []Die{
		{Index: 0, Node: 2, Face: "d6", Value: 3, Kept: true},
		{Index: 1, Node: 2, Face: "d6", Value: 1, Kept: false},
		{Index: 2, Node: 2, Face: "d6", Value: 6, Kept: true},
		{Index: 3, Node: 2, Face: "d6", Value: 4, Kept: true},
	}, r.Dice)

	second := writeTestRoll(t, s, "1d20", 12)
	assert.Equal(t, "roll-02", second.ID)
	assert.Equal(t, int64(2), second.Seq)
}

// TestReadRoll tests that a written roll reads back unchanged.
func TestReadRoll(t *testing.T) {
	s := createTestStore(t)
	written := writeTestRoll(t, s, "2d6! + 3", 6, 2, 3)

	got, err := s.ReadRoll(context.Background(), written.ID)
	require.NoError(t, err)
	assert.Equal(t, written, got)
	assert.Equal(t, written.ResultJSON, got.ResultJSON)
}

// TestReadRoll_NotFound tests the error of a missing roll.
func TestReadRoll_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRoll(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

// TestWriteRoll_ListResult tests that list results store no total.
func TestWriteRoll_ListResult(t *testing.T) {
	s := createTestStore(t)
	written := writeTestRoll(t, s, "[1d6, 3] * 2", 2, 5)
	assert.Nil(t, written.Total)

	got, err := s.ReadRoll(context.Background(), written.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Total)
	assert.Equal(t, `{"kind":"list","list":[2,3,5,3]}`, got.ResultJSON)
}

// TestListRolls tests ordering and limits.
func TestListRolls(t *testing.T) {
	s := createTestStore(t)
	writeTestRoll(t, s, "1d6", 1)
	writeTestRoll(t, s, "1d8", 2)
	writeTestRoll(t, s, "1d6", 3)

	all, err := s.ListRolls(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 2, 1}, seqs(all), "newest first")
	assert.Empty(t, all[0].Dice, "listing does not load dice")

	recent, err := s.ListRolls(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, seqs(recent))

	d6, err := s.FindRolls(context.Background(), ExpressionIs("1d6"), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, seqs(d6))

	none, err := s.FindRolls(context.Background(), ExpressionIs("1d4"), 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestFindRolls tests filtered listing.
func TestFindRolls(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestRoll(t, s, "1d20 + 5", 14)       // 19
	writeTestRoll(t, s, "2d6", 1, 2)          // 3
	writeTestRoll(t, s, "1d20 + 5", 2)        // 7
	writeTestRoll(t, s, "[1d4, 2] * 2", 3, 1) // list

	tests := []struct {
		name   string
		filter queryir.Predicate
		want   []int64
	}{
		{"all", nil, []int64{4, 3, 2, 1}},
		{"expression", ExpressionIs("1d20 + 5"), []int64{3, 1}},
		{"face", RolledFace("d20"), []int64{3, 1}},
		{"face without rolls", RolledFace("dF"), []int64{}},
		{
			"total skips list results",
			queryir.Compare{Field: "total", Op: queryir.OpGe, Value: ir.JSONInt(0)},
			[]int64{3, 2, 1},
		},
		{
			"combined",
			queryir.And{Predicates: []queryir.Predicate{
				RolledFace("d20"),
				queryir.Compare{Field: "total", Op: queryir.OpGt, Value: ir.JSONFloat(10)},
			}},
			[]int64{1},
		},
		{
			"kept die value",
			queryir.Exists{From: "roll_dice", Key: "roll_id", Ref: "id", Filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Compare{Field: "value", Op: queryir.OpEq, Value: ir.JSONInt(2)},
				queryir.Compare{Field: "kept", Op: queryir.OpEq, Value: ir.JSONBool(true)},
			}}},
			[]int64{3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindRolls(ctx, tt.filter, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seqs(got))
		})
	}

	limited, err := s.FindRolls(ctx, RolledFace("d20"), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, seqs(limited))

	_, err = s.FindRolls(ctx, queryir.Compare{Field: "flow_token", Op: queryir.OpEq, Value: ir.JSONString("x")}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown column "flow_token" in rolls`)
}

func seqs(rolls []Roll) []int64 {
	out := make([]int64, len(rolls))
	for i, r := range rolls {
		out[i] = r.Seq
	}
	return out
}

// TestDeleteRoll tests that deleting a roll cascades to its dice.
func TestDeleteRoll(t *testing.T) {
	s := createTestStore(t)
	r := writeTestRoll(t, s, "3d6", 1, 2, 3)

	deleted, err := s.DeleteRoll(context.Background(), r.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteRoll(context.Background(), r.ID)
	require.NoError(t, err, "deleting twice is fine")
	assert.False(t, deleted)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM roll_dice WHERE roll_id = ?`, r.ID).Scan(&count))
	assert.Zero(t, count)
}

// TestRoll_Replay tests that logged dice reproduce the logged result.
func TestRoll_Replay(t *testing.T) {
	s := createTestStore(t)
	src := "3d6!kh2 + 2dF"
	seeded, err := dice.Evaluate(context.Background(), src, dice.WithSeed(11))
	require.NoError(t, err)
	written, err := s.WriteRoll(context.Background(), seeded)
	require.NoError(t, err)

	got, err := s.ReadRoll(context.Background(), written.ID)
	require.NoError(t, err)
	rolled, err := got.Rolled()
	require.NoError(t, err)

	out, err := dice.Replay(context.Background(), got.Expression, rolled)
	require.NoError(t, err)
	ok, err := got.Matches(out)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = got.Matches(evaluate(t, "1d6", 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRoll_RolledBadFace tests a corrupt face in the log.
func TestRoll_RolledBadFace(t *testing.T) {
	r := Roll{ID: "r", Dice: []Die{{Index: 0, Node: 2, Face: "x6", Value: 1}}}
	_, err := r.Rolled()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid face "x6"`)

	r.Dice[0].Face = "d6"
	rolled, err := r.Rolled()
	require.NoError(t, err)
	assert.Equal(t, []engine.Rolled{{Node: 2, Face: engine.Numbered(6), Value: 1, ID: 1}}, rolled)
}

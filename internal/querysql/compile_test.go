package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/queryir"
)

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		From:    "rolls",
		Columns: []string{"id", "total"},
		Filter: queryir.Compare{
			Field: "expression",
			Op:    queryir.OpEq,
			Value: ir.JSONString("4d6kh3"),
		},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT rolls.id, rolls.total FROM rolls WHERE rolls.expression = ? ORDER BY rolls.id COLLATE BINARY ASC",
		sql)
	assert.NotContains(t, sql, "4d6kh3")
	assert.Equal(t, []any{"4d6kh3"}, params)
}

func TestCompile_Pointer(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(&queryir.Select{
		From:   "rolls",
		Filter: &queryir.Compare{Field: "dice", Op: queryir.OpGt, Value: ir.JSONInt(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT rolls.* FROM rolls WHERE rolls.dice > ? ORDER BY rolls.id COLLATE BINARY ASC", sql)
	assert.Equal(t, []any{int64(3)}, params)
}

func TestCompile_OrderAndLimit(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "rolls",
		Columns: []string{"id"},
		OrderBy: []queryir.Order{{Field: "seq", Desc: true}},
		Limit:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT rolls.id FROM rolls ORDER BY rolls.seq DESC, rolls.id COLLATE BINARY ASC LIMIT ?", sql)
	assert.Equal(t, []any{5}, params)
}

func TestCompile_OrderByKeyNotRepeated(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{
		From:    "roll_dice",
		OrderBy: []queryir.Order{{Field: "roll_id"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT roll_dice.* FROM roll_dice ORDER BY roll_dice.roll_id ASC, roll_dice.idx COLLATE BINARY ASC",
		sql)
}

func TestCompile_And(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From: "rolls",
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Compare{Field: "total", Op: queryir.OpGe, Value: ir.JSONInt(10)},
			queryir.Compare{Field: "total", Op: queryir.OpLt, Value: ir.JSONFloat(17.5)},
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Compare{Field: "session_id", Op: queryir.OpNe, Value: ir.JSONString("s-1")},
			}},
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE rolls.total >= ? AND rolls.total < ? AND (rolls.session_id != ?)")
	assert.Equal(t, []any{int64(10), 17.5, "s-1"}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		From:   "rolls",
		Filter: queryir.And{},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1")
	assert.Empty(t, params)
}

func TestCompile_Exists(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:    "rolls",
		Columns: []string{"id"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Compare{Field: "rounds", Op: queryir.OpGt, Value: ir.JSONInt(1)},
			queryir.Exists{
				From: "roll_dice", Key: "roll_id", Ref: "id",
				Filter: queryir.And{Predicates: []queryir.Predicate{
					queryir.Compare{Field: "face", Op: queryir.OpEq, Value: ir.JSONString("d20")},
					queryir.Compare{Field: "kept", Op: queryir.OpEq, Value: ir.JSONBool(true)},
				}},
			},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT rolls.id FROM rolls WHERE rolls.rounds > ? AND "+
			"EXISTS (SELECT 1 FROM roll_dice WHERE roll_dice.roll_id = rolls.id AND roll_dice.face = ? AND roll_dice.kept = ?) "+
			"ORDER BY rolls.id COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{int64(1), "d20", int64(1)}, params)
}

func TestCompile_ExistsWithoutFilter(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		From:   "rolls",
		Filter: queryir.Exists{From: "roll_dice", Key: "roll_id", Ref: "id"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "EXISTS (SELECT 1 FROM roll_dice WHERE roll_dice.roll_id = rolls.id)")
	assert.Empty(t, params)
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"nil", nil, "nil query"},
		{"unknown table", queryir.Select{From: "flows"}, `unknown table "flows"`},
		{
			"injection in column name",
			queryir.Select{From: "rolls", Filter: queryir.Compare{Field: "id; DROP TABLE rolls", Op: queryir.OpEq, Value: ir.JSONString("x")}},
			"unknown column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	query := queryir.Select{
		From:    "rolls",
		Columns: []string{"id", "seq"},
		Filter:  queryir.Compare{Field: "total", Op: queryir.OpGe, Value: ir.JSONInt(3)},
		OrderBy: []queryir.Order{{Field: "seq", Desc: true}},
	}
	compiler := NewSQLCompiler()

	first, _, err := compiler.Compile(query)
	require.NoError(t, err)
	for range 10 {
		sql, _, err := compiler.Compile(query)
		require.NoError(t, err)
		assert.Equal(t, first, sql)
	}
}

func TestValueToParam(t *testing.T) {
	tests := []struct {
		in   ir.JSONValue
		want any
	}{
		{ir.JSONString("d6"), "d6"},
		{ir.JSONInt(-3), int64(-3)},
		{ir.JSONFloat(1.5), 1.5},
		{ir.JSONBool(true), int64(1)},
		{ir.JSONBool(false), int64(0)},
	}
	for _, tt := range tests {
		got, err := valueToParam(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := valueToParam(ir.JSONObject{})
	assert.Error(t, err)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dicegraph/internal/compiler"
	"github.com/roach88/dicegraph/internal/graph"
	"github.com/roach88/dicegraph/internal/lower"
	"github.com/roach88/dicegraph/internal/optimizer"
	"github.com/roach88/dicegraph/internal/syntax"
)

// prepare parses, lowers, folds and compiles src.
func prepare(t *testing.T, src string) *graph.Graph {
	t.Helper()
	expr, err := syntax.Parse(src)
	require.NoError(t, err)
	n, err := lower.Lower(expr)
	require.NoError(t, err)
	n, err = optimizer.Fold(n)
	require.NoError(t, err)
	g, err := compiler.Compile(n)
	require.NoError(t, err)
	return g
}

// newSession creates a session with a fixed id.
func newSession(t *testing.T, src string, opts ...SessionOption) *Session {
	t.Helper()
	opts = append([]SessionOption{WithIDGenerator(NewFixedGenerator("session-1"))}, opts...)
	s, err := NewSession(prepare(t, src), opts...)
	require.NoError(t, err)
	return s
}

// scriptedRoller answers requests from a fixed sequence of values.
type scriptedRoller struct {
	t      *testing.T
	values []int
}

func script(t *testing.T, values ...int) *scriptedRoller {
	return &scriptedRoller{t: t, values: values}
}

func (r *scriptedRoller) Roll(req Request, ids *RollIDs) Response {
	require.GreaterOrEqual(r.t, len(r.values), req.Count, "script exhausted")
	out := make([]Roll, req.Count)
	for i := range out {
		out[i] = Roll{Value: r.values[0], ID: ids.Next()}
		r.values = r.values[1:]
	}
	return Response{Results: out}
}

// always rolls v on every die.
func always(v int) Roller {
	return RollerFunc(func(req Request, ids *RollIDs) Response {
		out := make([]Roll, req.Count)
		for i := range out {
			out[i] = Roll{Value: v, ID: ids.Next()}
		}
		return Response{Results: out}
	})
}

// respond answers every pending request of s with roller.
func respond(t *testing.T, s *Session, roller Roller) {
	t.Helper()
	requests, err := s.PendingRequests()
	require.NoError(t, err)
	responses := make([]Response, len(requests))
	for i, req := range requests {
		responses[i] = roller.Roll(req, s.RollIDs())
	}
	require.NoError(t, s.SubmitResponses(responses))
}

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/testutil"
)

// testTime is the created_at of every roll written by test stores.
var testTime = time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)

// createTestStore creates a new store in a temp directory with sequential
// roll ids and a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("roll-%02d", i+1)
	}
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(engine.NewFixedGenerator(ids...)),
		WithClock(func() time.Time { return testTime }),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// evaluate runs src with scripted dice.
func evaluate(t *testing.T, src string, rolls ...int) *dice.Outcome {
	t.Helper()
	out, err := dice.Evaluate(context.Background(), src,
		dice.WithRoller(testutil.NewScriptedRoller(rolls...)),
		dice.WithSessionOptions(engine.WithIDGenerator(testutil.NewFixedIDs("session-1"))),
	)
	if err != nil {
		t.Fatalf("Evaluate(%q) failed: %v", src, err)
	}
	return out
}

// writeTestRoll evaluates src with scripted dice and logs it.
func writeTestRoll(t *testing.T, s *Store, src string, rolls ...int) Roll {
	t.Helper()
	r, err := s.WriteRoll(context.Background(), evaluate(t, src, rolls...))
	if err != nil {
		t.Fatalf("WriteRoll(%q) failed: %v", src, err)
	}
	return r
}

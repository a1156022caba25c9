package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// rollJSON mirrors RollResult with the result left raw.
type rollJSON struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	Expression string          `json:"expression"`
	Folded     string          `json:"folded"`
	Explain    string          `json:"explain"`
	Result     json.RawMessage `json:"result"`
	Total      *float64        `json:"total"`
	Rounds     int             `json:"rounds"`
	Dice       int             `json:"dice"`
	Box        []BoxRound      `json:"box"`
}

func decodeData(t *testing.T, out string, data any) string {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if data != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	if resp.Error != nil {
		return resp.Error.Code
	}
	return resp.Status
}

func TestFoldCommand(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1d20 + 5 + 3", "1d20+8\n"},
		{"2d6 + 2d6", "4d6\n"},
		{"max(2 + 3, 4 * 2)", "8\n"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			out, err := executeCommand(t, "fold", tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestFoldCommand_JSON(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "fold", "(1d6 / 2) / 3")
	require.NoError(t, err)

	var got FoldResult
	assert.Equal(t, "ok", decodeData(t, out, &got))
	assert.Equal(t, "(1d6 / 2) / 3", got.Expression)
	assert.Equal(t, "1d6/6", got.Folded)
	assert.Len(t, got.Fingerprint, 64)

	fingerprint := func(src string) string {
		t.Helper()
		out, err := executeCommand(t, "--format", "json", "fold", src)
		require.NoError(t, err)
		var r FoldResult
		require.Equal(t, "ok", decodeData(t, out, &r))
		return r.Fingerprint
	}
	assert.Equal(t, got.Fingerprint, fingerprint("1d6/6"), "same folded tree")
	assert.NotEqual(t, got.Fingerprint, fingerprint("1d6/5"))
}

func TestFoldCommand_Errors(t *testing.T) {
	tests := []struct {
		src  string
		code string
	}{
		{"1d6 +", ErrCodeSyntax},
		{"[1,2,3]d6", "E201"},
		{"10 / 0", ErrCodeFold},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			out, err := executeCommand(t, "--format", "json", "fold", tt.src)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.True(t, IsReported(err))
			assert.Equal(t, tt.code, decodeData(t, out, nil))
		})
	}
}

func TestCheckCommand(t *testing.T) {
	out, err := executeCommand(t, "check", "2 * (3 + 4)")
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)

	out, err = executeCommand(t, "--format", "json", "check", "10 / 4")
	require.NoError(t, err)
	var got CheckResult
	decodeData(t, out, &got)
	assert.Equal(t, CheckResult{Expression: "10 / 4", Constant: true, Value: 2.5, Integer: false}, got)

	out, err = executeCommand(t, "--format", "json", "check", "7 // 2")
	require.NoError(t, err)
	decodeData(t, out, &got)
	assert.True(t, got.Integer)
	assert.Equal(t, 3.0, got.Value)
}

func TestCheckCommand_NotConstant(t *testing.T) {
	out, err := executeCommand(t, "check", "2d6kh1 + 1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E302]")

	out, err = executeCommand(t, "--format", "json", "check", "1d6")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	var got CheckResult
	assert.Equal(t, "ok", decodeData(t, out, &got))
	assert.False(t, got.Constant)
}

func TestGraphCommand(t *testing.T) {
	out, err := executeCommand(t, "graph", "2d6")
	require.NoError(t, err)
	assert.Equal(t, "0: Constant 2\n1: Constant 6\n2: DiceStandard #0 #1\n", out)

	out, err = executeCommand(t, "--format", "json", "graph", "2d6")
	require.NoError(t, err)
	assert.Equal(t, "ok", decodeData(t, out, nil))
	assert.Contains(t, out, "DiceStandard")
}

func TestRollCommand_Seeded(t *testing.T) {
	first, err := executeCommand(t, "roll", "4d6kh3 + 2", "--seed", "42")
	require.NoError(t, err)
	second, err := executeCommand(t, "roll", "4d6kh3 + 2", "--seed", "42")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "4d6kh3 [")
}

func TestRollCommand_JSON(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "roll", "4d6kh3 + 2", "--seed", "7")
	require.NoError(t, err)

	var got rollJSON
	assert.Equal(t, "ok", decodeData(t, out, &got))
	assert.Equal(t, "4d6kh3 + 2", got.Expression)
	assert.Equal(t, "4d6kh3+2", got.Folded)
	assert.Equal(t, 4, got.Dice)
	assert.Equal(t, 1, got.Rounds)
	require.NotNil(t, got.Total)
	assert.GreaterOrEqual(t, *got.Total, 5.0)
	assert.LessOrEqual(t, *got.Total, 20.0)
	assert.Empty(t, got.ID)
	assert.Empty(t, got.Box)
}

func TestRollCommand_ListResult(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "roll", "[1, 2] * 2")
	require.NoError(t, err)

	var got rollJSON
	decodeData(t, out, &got)
	assert.Nil(t, got.Total)
	assert.JSONEq(t, `{"kind":"list","list":[1,2,1,2]}`, string(got.Result))
}

func TestRollCommand_Budget(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "roll", "4d6", "--dice", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeBudget, decodeData(t, out, nil))
	assert.Contains(t, out, "dice budget exceeded")
}

func TestRollCommand_SaveAndVisualExclusive(t *testing.T) {
	_, err := executeCommand(t, "roll", "1d6", "--save", "--visual")
	require.Error(t, err)
}

func TestRollCommand_Visual(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "roll", "4d6kh3 + 2dF", "--visual", "--seed", "5")
	require.NoError(t, err)

	var got rollJSON
	decodeData(t, out, &got)
	assert.Equal(t, 6, got.Dice)
	require.NotEmpty(t, got.Box)

	// Only the d6 pool is thrown by the box; fudge dice fall back to the roller.
	first := got.Box[0]
	assert.Equal(t, 1, first.Round)
	require.Len(t, first.Thrown, 1)
	assert.Equal(t, 6, first.Thrown[0].Sides)
	assert.Len(t, first.Thrown[0].Values, 4)
	for _, v := range first.Thrown[0].Values {
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 6)
	}

	text, err := executeCommand(t, "roll", "4d6kh3 + 2dF", "--visual", "--seed", "5")
	require.NoError(t, err)
	assert.Contains(t, text, "round 1: box threw 4d6")
	assert.Contains(t, text, got.Explain)
}

func TestRollCommand_Config(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dicegraph.cue")
	cfg := "seed: 7\naliases: fireball: \"8d6\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	out, err := executeCommand(t, "--config", cfgPath, "--format", "json", "roll", "@fireball")
	require.NoError(t, err)
	var fromConfig rollJSON
	decodeData(t, out, &fromConfig)
	assert.Equal(t, "8d6", fromConfig.Expression)
	assert.Equal(t, 8, fromConfig.Dice)

	// The configured seed gives the same roll as the flag.
	out, err = executeCommand(t, "--format", "json", "roll", "8d6", "--seed", "7")
	require.NoError(t, err)
	var fromFlag rollJSON
	decodeData(t, out, &fromFlag)
	assert.Equal(t, fromFlag.Explain, fromConfig.Explain)

	_, err = executeCommand(t, "--config", cfgPath, "roll", "@missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRollCommand_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte("budgets: dice: 0\n"), 0644))

	_, err := executeCommand(t, "--config", cfgPath, "roll", "1d6")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRollHistoryReplay(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rolls.db")

	out, err := executeCommand(t, "--format", "json", "roll", "3d6!kh2 + 2dF", "--seed", "11", "--save", "--db", db)
	require.NoError(t, err)
	var saved rollJSON
	decodeData(t, out, &saved)
	require.NotEmpty(t, saved.ID)

	_, err = executeCommand(t, "roll", "1d20", "--save", "--db", db)
	require.NoError(t, err)

	out, err = executeCommand(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, saved.ID)
	assert.Contains(t, out, "1d20")

	out, err = executeCommand(t, "--format", "json", "history", "--db", db, "3d6!kh2 + 2dF")
	require.NoError(t, err)
	var listed []struct {
		ID  string `json:"id"`
		Seq int64  `json:"seq"`
	}
	decodeData(t, out, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, saved.ID, listed[0].ID)
	assert.Equal(t, int64(1), listed[0].Seq)

	out, err = executeCommand(t, "replay", saved.ID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, saved.Explain)
	assert.Contains(t, out, "✓ "+saved.ID)

	out, err = executeCommand(t, "--format", "json", "replay", saved.ID, "--db", db)
	require.NoError(t, err)
	var replayed ReplayResult
	decodeData(t, out, &replayed)
	assert.True(t, replayed.Match)
	assert.Equal(t, saved.Dice, replayed.Dice)
	assert.JSONEq(t, replayed.Logged, replayed.Replayed)
}

func TestHistoryCommand_Filters(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rolls.db")
	for _, src := range []string{"1d20 + 5", "2d6", "4dF"} {
		_, err := executeCommand(t, "roll", src, "--save", "--db", db)
		require.NoError(t, err)
	}

	listed := func(args ...string) []string {
		t.Helper()
		out, err := executeCommand(t, append([]string{"--format", "json", "history", "--db", db}, args...)...)
		require.NoError(t, err)
		var rolls []struct {
			Expression string `json:"expression"`
		}
		decodeData(t, out, &rolls)
		exprs := []string{}
		for _, r := range rolls {
			exprs = append(exprs, r.Expression)
		}
		return exprs
	}

	assert.Equal(t, []string{"4dF", "2d6", "1d20 + 5"}, listed())
	assert.Equal(t, []string{"1d20 + 5"}, listed("--face", "d20"))
	assert.Equal(t, []string{"4dF"}, listed("--face", "df"))
	assert.Equal(t, []string{"4dF", "2d6"}, listed("--where", "dice>=2"))
	assert.Equal(t, []string{"2d6"}, listed("--where", "dice>=2", "--where", "dice<4"))
	assert.Equal(t, []string{"2d6"}, listed("2d6", "--where", "rounds=1"))
	assert.Empty(t, listed("--face", "d20", "--where", "dice>1"))

	_, err := executeCommand(t, "history", "--db", db, "--where", "total")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := executeCommand(t, "--format", "json", "history", "--db", db, "--where", "flow=1")
	require.Error(t, err)
	assert.Equal(t, ErrCodeStore, decodeData(t, out, nil))
}

func TestHistoryRemoveCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rolls.db")

	var ids []string
	for _, src := range []string{"2d6", "1d20"} {
		out, err := executeCommand(t, "--format", "json", "roll", src, "--save", "--db", db)
		require.NoError(t, err)
		var saved rollJSON
		decodeData(t, out, &saved)
		require.NotEmpty(t, saved.ID)
		ids = append(ids, saved.ID)
	}

	out, err := executeCommand(t, "--format", "json", "history", "rm", ids[0], "--db", db)
	require.NoError(t, err)
	var removed RemoveResult
	assert.Equal(t, "ok", decodeData(t, out, &removed))
	assert.Equal(t, RemoveResult{ID: ids[0], Removed: true}, removed)

	out, err = executeCommand(t, "history", "--db", db)
	require.NoError(t, err)
	assert.NotContains(t, out, ids[0])
	assert.Contains(t, out, ids[1])

	out, err = executeCommand(t, "--format", "json", "history", "rm", ids[0], "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeStore, decodeData(t, out, nil))

	out, err = executeCommand(t, "history", "rm", ids[1], "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Removed "+ids[1]+"\n", out)
}

func TestHistoryCommand_EnvDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("DICEGRAPH_DB", db)

	out, err := executeCommand(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No rolls logged.\n", out)

	_, err = executeCommand(t, "roll", "2d4", "--save")
	require.NoError(t, err)

	out, err = executeCommand(t, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2d4")
}

func TestReplayCommand_NotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rolls.db")

	out, err := executeCommand(t, "--format", "json", "replay", "no-such-roll", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeStore, decodeData(t, out, nil))
}

func TestTestCommand(t *testing.T) {
	out, err := executeCommand(t, "test", "../harness/testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ keep_and_explode")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")

	out, err = executeCommand(t, "test", "../harness/testdata/scenarios", "--filter", "mixed*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "test", "../harness/testdata/scenarios")
	require.NoError(t, err)

	var got TestResult
	assert.Equal(t, "ok", decodeData(t, out, &got))
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 3, got.Passed)
}

func TestTestCommand_Update(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.Mkdir(scenarios, 0755))

	data, err := os.ReadFile("../harness/testdata/scenarios/keep_and_explode.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "keep_and_explode.yaml"), data, 0644))

	out, err := executeCommand(t, "test", scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	written, err := os.ReadFile(filepath.Join(dir, "golden", "keep_and_explode.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("../harness/testdata/golden/keep_and_explode.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	// A tampered golden file fails the run.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "keep_and_explode.golden"), []byte("{}"), 0644))
	out, err = executeCommand(t, "test", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong_total
description: "Expects the wrong total"
rolls:
  - expression: "2d6 + 3"
    responses: [4, 5]
    expect:
      total: 13
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_total.yaml"), []byte(scenario), 0644))

	out, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_total")
	assert.Contains(t, out, "total: expected 13, got 12")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := executeCommand(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

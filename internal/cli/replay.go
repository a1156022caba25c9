package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult is the JSON payload of the replay command.
type ReplayResult struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	Logged     string `json:"logged"`
	Replayed   string `json:"replayed"`
	Explain    string `json:"explain"`
	Dice       int    `json:"dice"`
	Match      bool   `json:"match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <roll-id>",
		Short: "Replay a logged roll and verify its result",
		Long: `Evaluate a logged roll again, answering every dice request with the
dice that were logged for it, and compare the result with the logged one.

A roll replays only if the engine asks for exactly the logged dice in the
logged order. A different request or a different result is a mismatch.

Exit codes:
  0 - The replay reproduced the logged result
  1 - The replay diverged
  2 - Command error (database problems, unknown roll)

Examples:
  dicegraph replay 0192f8a4-7c1e-7d2a-9c6b-1f2e3d4c5b6a
  dicegraph replay <roll-id> --db ./rolls.db --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, id string) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()
	path := opts.database(opts.Database)
	f.VerboseLog("Opening database: %s", path)

	st, err := store.Open(path)
	if err != nil {
		return f.FailCode(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	logged, err := st.ReadRoll(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return f.FailCode(ExitCommandError, ErrCodeStore, "roll not found", err)
	}
	if err != nil {
		return f.FailCode(ExitCommandError, ErrCodeStore, "failed to read roll", err)
	}
	rolls, err := logged.Rolled()
	if err != nil {
		return f.FailCode(ExitCommandError, ErrCodeStore, "failed to decode logged dice", err)
	}

	out, err := dice.Replay(ctx, logged.Expression, rolls)
	if err != nil {
		return f.Fail(ExitFailure, "replay diverged", err)
	}
	match, err := logged.Matches(out)
	if err != nil {
		return f.Fail(ExitFailure, "replay failed", err)
	}

	replayed, err := json.Marshal(out.Tree.Value)
	if err != nil {
		return f.Fail(ExitFailure, "replay failed", err)
	}

	result := ReplayResult{
		ID:         logged.ID,
		Expression: logged.Expression,
		Logged:     logged.ResultJSON,
		Replayed:   string(replayed),
		Explain:    out.Tree.Explain(),
		Dice:       len(rolls),
		Match:      match,
	}

	if f.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, result.Explain)
		if match {
			fmt.Fprintf(f.Writer, "✓ %s replayed %d dice to the logged result\n", result.ID, result.Dice)
		} else {
			fmt.Fprintf(f.Writer, "✗ %s replayed to %s, logged %s\n", result.ID, result.Replayed, result.Logged)
		}
	}

	if !match {
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("roll %s replayed to a different result", id))
		exitErr.Reported = true
		return exitErr
	}
	return nil
}

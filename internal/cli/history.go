package cli

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/queryir"
	"github.com/roach88/dicegraph/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Where    []string
	Face     string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [expression]",
		Short: "List logged rolls",
		Long: `List the rolls in the roll log, newest first. With an expression only
rolls of that exact expression are listed.

--where filters on a column of the roll log with =, !=, <, <=, > or >=.
It may be repeated; all conditions must hold. --face keeps rolls that
rolled at least one die of that face.

Examples:
  dicegraph history
  dicegraph history 4d6kh3 --limit 5
  dicegraph history --where "total>=18" --face d20
  dicegraph history --db ./rolls.db --format json
  dicegraph history rm <roll-id>`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum rolls to list (0 lists all)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter condition such as total>=15 (repeatable)")
	cmd.Flags().StringVar(&opts.Face, "face", "", "only rolls with a die of this face, such as d20")

	cmd.AddCommand(newHistoryRemoveCommand(rootOpts))

	return cmd
}

// RemoveResult is the JSON payload of the history rm command.
type RemoveResult struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

func newHistoryRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "rm <roll-id>",
		Short: "Remove a roll from the roll log",
		Long: `Remove a logged roll and its dice from the roll log.

Exit codes:
  0 - The roll was removed
  2 - No roll has that id, or the database could not be opened`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id := args[0]

			st, err := store.Open(rootOpts.database(database))
			if err != nil {
				return f.FailCode(ExitCommandError, ErrCodeStore, "failed to open database", err)
			}
			defer st.Close()

			removed, err := st.DeleteRoll(cmd.Context(), id)
			if err != nil {
				return f.FailCode(ExitCommandError, ErrCodeStore, "failed to remove roll", err)
			}
			if !removed {
				return f.FailCode(ExitCommandError, ErrCodeStore, "failed to remove roll", fmt.Errorf("no roll %q", id))
			}
			slog.Info("roll removed", "id", id)

			if f.Format == "json" {
				return f.Success(RemoveResult{ID: id, Removed: true})
			}
			return f.Success(fmt.Sprintf("Removed %s", id))
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

// filter builds the roll log filter from the expression argument and the
// flags.
func (o *HistoryOptions) filter(args []string) (queryir.Predicate, error) {
	var preds []queryir.Predicate
	if len(args) == 1 {
		src, err := o.expression(args[0])
		if err != nil {
			return nil, err
		}
		preds = append(preds, store.ExpressionIs(src))
	}
	for _, w := range o.Where {
		cond, err := queryir.ParseCondition(w)
		if err != nil {
			return nil, err
		}
		preds = append(preds, cond)
	}
	if o.Face != "" {
		face, err := engine.ParseFace(o.Face)
		if err != nil {
			return nil, err
		}
		preds = append(preds, store.RolledFace(face.String()))
	}

	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return queryir.And{Predicates: preds}, nil
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) error {
	f := opts.formatter(cmd)

	filter, err := opts.filter(args)
	if err != nil {
		return f.FailCode(ExitCommandError, ErrCodeGeneric, "invalid filter", err)
	}

	path := opts.database(opts.Database)
	f.VerboseLog("Opening database: %s", path)

	st, err := store.Open(path)
	if err != nil {
		return f.FailCode(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	rolls, err := st.FindRolls(cmd.Context(), filter, opts.Limit)
	if err != nil {
		return f.FailCode(ExitCommandError, ErrCodeStore, "failed to list rolls", err)
	}

	if f.Format == "json" {
		return f.Success(rolls)
	}
	if len(rolls) == 0 {
		fmt.Fprintln(f.Writer, "No rolls logged.")
		return nil
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tEXPRESSION\tRESULT\tDICE")
	for _, r := range rolls {
		result := r.ResultJSON
		if r.Total != nil {
			result = ir.FormatNumber(*r.Total)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", r.Seq, r.ID, r.Expression, result, r.DiceCount)
	}
	return tw.Flush()
}

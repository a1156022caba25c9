package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/render"
	"github.com/roach88/dicegraph/internal/store"
)

// RollOptions holds flags for the roll command.
type RollOptions struct {
	*RootOptions
	Seed     uint64
	Rounds   int
	Dice     int
	Save     bool
	Database string
	Visual   bool
}

// RollResult is the JSON payload of the roll command.
type RollResult struct {
	ID         string       `json:"id,omitempty"`
	SessionID  string       `json:"session_id"`
	Expression string       `json:"expression"`
	Folded     string       `json:"folded"`
	Explain    string       `json:"explain"`
	Result     render.Value `json:"result"`
	Total      *float64     `json:"total,omitempty"`
	Rounds     int          `json:"rounds"`
	Dice       int          `json:"dice"`
	Box        []BoxRound   `json:"box,omitempty"`
}

// BoxRound is one round of a --visual roll: the dice the box threw and the
// box dice the engine took off the table before the round.
type BoxRound struct {
	Round   int                `json:"round"`
	Thrown  []BoxThrow         `json:"thrown"`
	Removed []engine.VisualDie `json:"removed,omitempty"`
}

// BoxThrow is a group of dice of one face thrown by the box.
type BoxThrow struct {
	Group  float64 `json:"group_id"`
	Sides  int     `json:"sides"`
	Values []int   `json:"values"`
}

// NewRollCommand creates the roll command.
func NewRollCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RollOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "roll <expression>",
		Short: "Roll a dice expression",
		Long: `Roll a dice expression and print the explained result.

The expression may be an @alias from the config file. Budgets and the seed
default to the config file; flags override it.

With --save the roll and every die is logged to the SQLite roll log, so it
can be listed with "history" and checked with "replay".

With --visual the numbered dice the config lists under visualFaces are
thrown by a simulated dice box, round by round, and the remaining dice by
the roller. The box rounds are included in the output.

Examples:
  dicegraph roll 4d6kh3
  dicegraph roll "2d20kh1 + 5" --seed 42
  dicegraph roll @fireball --save
  dicegraph roll "6d6!" --visual --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoll(cmd, opts, args[0])
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed the roller for a reproducible roll")
	cmd.Flags().IntVar(&opts.Rounds, "rounds", 0, "round budget (default from config)")
	cmd.Flags().IntVar(&opts.Dice, "dice", 0, "dice budget (default from config)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "log the roll to the database")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().BoolVar(&opts.Visual, "visual", false, "throw visual dice with a simulated dice box")
	cmd.MarkFlagsMutuallyExclusive("save", "visual")

	return cmd
}

// roller picks the seed flag, then the configured seed, then crypto/rand.
func (o *RollOptions) roller(cmd *cobra.Command) engine.Roller {
	if cmd.Flags().Changed("seed") {
		return engine.NewSeededRoller(o.Seed)
	}
	if o.Config != nil && o.Config.Seed != nil {
		return engine.NewSeededRoller(*o.Config.Seed)
	}
	return engine.NewRandomRoller()
}

// budgets returns the round and dice budgets, flags over config.
func (o *RollOptions) budgets() (int, int) {
	rounds, dice := o.Rounds, o.Dice
	if o.Config != nil {
		if rounds <= 0 {
			rounds = o.Config.Budgets.Rounds
		}
		if dice <= 0 {
			dice = o.Config.Budgets.Dice
		}
	}
	return rounds, dice
}

// database returns the roll log path, flag over config.
func (o *RootOptions) database(flag string) string {
	if flag != "" {
		return flag
	}
	if o.Config != nil {
		return o.Config.DB
	}
	return "dicegraph.db"
}

func runRoll(cmd *cobra.Command, opts *RollOptions, arg string) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	src, err := opts.expression(arg)
	if err != nil {
		return f.FailCode(ExitCommandError, ErrCodeConfig, "failed to resolve expression", err)
	}
	if src != arg {
		f.VerboseLog("Expanded %s to %q", arg, src)
	}

	if opts.Visual {
		result, err := rollVisual(ctx, opts, cmd, src)
		if err != nil {
			return f.Fail(ExitFailure, "roll failed", err)
		}
		return outputRoll(f, result)
	}

	rounds, diceBudget := opts.budgets()
	out, err := dice.Evaluate(ctx, src,
		dice.WithRoller(opts.roller(cmd)),
		dice.WithBudget(rounds, diceBudget),
	)
	if err != nil {
		return f.Fail(ExitFailure, "roll failed", err)
	}
	result := rollResult(out)

	if opts.Save {
		path := opts.database(opts.Database)
		f.VerboseLog("Logging roll to %s", path)
		st, err := store.Open(path)
		if err != nil {
			return f.FailCode(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer st.Close()

		logged, err := st.WriteRoll(ctx, out)
		if err != nil {
			return f.FailCode(ExitCommandError, ErrCodeStore, "failed to log roll", err)
		}
		result.ID = logged.ID
		slog.Info("roll logged", "id", logged.ID, "seq", logged.Seq, "expression", src)
	}

	return outputRoll(f, result)
}

func rollResult(out *dice.Outcome) RollResult {
	r := RollResult{
		SessionID:  out.SessionID,
		Expression: out.Expression,
		Folded:     out.Folded,
		Explain:    out.Tree.Explain(),
		Result:     out.Tree.Value,
		Rounds:     out.Rounds,
		Dice:       out.Dice,
	}
	if total, ok := out.Total(); ok {
		r.Total = &total
	}
	return r
}

func outputRoll(f *OutputFormatter, r RollResult) error {
	if f.Format == "json" {
		return f.Success(r)
	}
	for _, round := range r.Box {
		for _, d := range round.Removed {
			fmt.Fprintf(f.Writer, "round %d: remove die %v/%v\n", round.Round, d.Group, d.Roll)
		}
		for _, t := range round.Thrown {
			fmt.Fprintf(f.Writer, "round %d: box threw %dd%d %v\n", round.Round, len(t.Values), t.Sides, t.Values)
		}
	}
	if r.ID != "" {
		f.VerboseLog("Logged as %s", r.ID)
	}
	return f.Success(r.Explain)
}

// rollVisual drives a visual session, standing in for a dice box with the
// configured roller.
func rollVisual(ctx context.Context, opts *RollOptions, cmd *cobra.Command, src string) (RollResult, error) {
	folded, err := dice.Fold(src)
	if err != nil {
		return RollResult{}, err
	}
	g, err := dice.Prepare(src)
	if err != nil {
		return RollResult{}, err
	}

	rounds, diceBudget := opts.budgets()
	sessionOpts := []engine.SessionOption{}
	if rounds > 0 {
		sessionOpts = append(sessionOpts, engine.WithRoundBudget(rounds))
	}
	if diceBudget > 0 {
		sessionOpts = append(sessionOpts, engine.WithDiceBudget(diceBudget))
	}
	s, err := engine.NewSession(g, sessionOpts...)
	if err != nil {
		return RollResult{}, err
	}

	roller := opts.roller(cmd)
	var visualOpts []engine.VisualOption
	if opts.Config != nil && len(opts.Config.VisualFaces) > 0 {
		visualOpts = append(visualOpts, engine.WithVisualFaces(opts.Config.VisualFaces...))
	}
	v := engine.NewVisualSession(s, roller, visualOpts...)

	box := engine.NewRollIDs()
	var boxRounds []BoxRound
	var group float64

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return RollResult{}, err
		}
		if err := s.Advance(); err != nil {
			return RollResult{}, err
		}
		removed := v.Removed()
		if s.State() == engine.StateDone {
			if len(removed) > 0 {
				boxRounds = append(boxRounds, BoxRound{Round: round, Thrown: []BoxThrow{}, Removed: removed})
			}
			break
		}

		requests, err := v.VisualRequests()
		if err != nil {
			return RollResult{}, err
		}
		br := BoxRound{Round: round, Thrown: []BoxThrow{}, Removed: removed}
		responses := make([]engine.VisualResponse, len(requests))
		for i, req := range requests {
			group++
			thrown := roller.Roll(engine.Request{Face: engine.Numbered(req.Sides), Count: req.Count}, box)
			resp := engine.VisualResponse{Index: req.Index}
			throw := BoxThrow{Group: group, Sides: req.Sides, Values: make([]int, len(thrown.Results))}
			for j, r := range thrown.Results {
				resp.Dice = append(resp.Dice, engine.VisualDie{Group: group, Roll: float64(r.ID)})
				resp.Values = append(resp.Values, float64(r.Value))
				throw.Values[j] = r.Value
			}
			responses[i] = resp
			br.Thrown = append(br.Thrown, throw)
		}
		boxRounds = append(boxRounds, br)

		if err := v.SubmitVisual(responses); err != nil {
			return RollResult{}, err
		}
	}

	tree, err := s.TryTakeResult()
	if err != nil {
		return RollResult{}, err
	}
	r := RollResult{
		SessionID:  s.ID(),
		Expression: src,
		Folded:     folded,
		Explain:    tree.Explain(),
		Result:     tree.Value,
		Rounds:     s.Rounds(),
		Dice:       s.DiceRolled(),
		Box:        boxRounds,
	}
	if total, ok := tree.Value.Scalar(); ok {
		r.Total = &total
	}
	return r, nil
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/ir"
)

// FoldResult is the JSON payload of the fold command.
type FoldResult struct {
	Expression  string `json:"expression"`
	Folded      string `json:"folded"`
	Fingerprint string `json:"fingerprint"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Expression string  `json:"expression"`
	Constant   bool    `json:"constant"`
	Value      float64 `json:"value"`
	Integer    bool    `json:"integer"`
}

// NewFoldCommand creates the fold command.
func NewFoldCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fold <expression>",
		Short: "Print an expression after constant folding",
		Long: `Parse an expression, fold its constant parts and print it in compact
notation. Nothing is rolled. With --format json the structural fingerprint
of the folded expression is included; expressions that fold to the same
tree share it.

Examples:
  dicegraph fold "1d6 + 2 * 3"
  dicegraph fold "(2 + 2)d6"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			src, err := rootOpts.expression(args[0])
			if err != nil {
				return f.FailCode(ExitCommandError, ErrCodeConfig, "failed to resolve expression", err)
			}
			n, err := dice.FoldIR(src)
			if err != nil {
				return f.Fail(ExitFailure, "fold failed", err)
			}
			folded := ir.Format(n)
			if f.Format != "json" {
				return f.Success(folded)
			}
			fp, err := ir.Fingerprint(n)
			if err != nil {
				return f.Fail(ExitFailure, "fingerprint failed", err)
			}
			return f.Success(FoldResult{Expression: src, Folded: folded, Fingerprint: fp})
		},
	}
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <expression>",
		Short: "Check whether an expression folds to a constant",
		Long: `Fold an expression and report its value when no dice remain.

Exit codes:
  0 - The expression is a constant
  1 - The expression rolls dice or is invalid

Examples:
  dicegraph check "2 * (3 + 4)"
  dicegraph check "10 / 4" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			src, err := rootOpts.expression(args[0])
			if err != nil {
				return f.FailCode(ExitCommandError, ErrCodeConfig, "failed to resolve expression", err)
			}
			v, err := dice.CheckConstant(src)
			if errors.Is(err, dice.ErrNotConstant) && f.Format == "json" {
				_ = f.Success(CheckResult{Expression: src})
				return WrapExitError(ExitFailure, "not a constant", err)
			}
			if err != nil {
				return f.Fail(ExitFailure, "check failed", err)
			}
			if f.Format == "json" {
				return f.Success(CheckResult{
					Expression: src,
					Constant:   true,
					Value:      v,
					Integer:    v == float64(int64(v)),
				})
			}
			return f.Success(ir.FormatNumber(v))
		},
	}
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graph <expression>",
		Short: "Print the evaluation graph of an expression",
		Long: `Compile an expression and print its evaluation graph, one node per
line in post-order. With --format json the graph is printed as canonical
JSON.

Examples:
  dicegraph graph 4d6kh3
  dicegraph graph "1d20 + 5" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			src, err := rootOpts.expression(args[0])
			if err != nil {
				return f.FailCode(ExitCommandError, ErrCodeConfig, "failed to resolve expression", err)
			}
			g, err := dice.Prepare(src)
			if err != nil {
				return f.Fail(ExitFailure, "compile failed", err)
			}
			f.VerboseLog("Compiled %d nodes, root %d", g.Len(), g.Root)

			if f.Format == "json" {
				data, err := ir.MarshalCanonical(g.Encode())
				if err != nil {
					return f.Fail(ExitFailure, "encode failed", err)
				}
				return f.Success(json.RawMessage(data))
			}
			fmt.Fprint(f.Writer, g.String())
			return nil
		},
	}
}

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/ir"
)

// SuggestOptions holds flags for the suggest command.
type SuggestOptions struct {
	*RootOptions
	RulesDir string
	Explain  bool
}

// SuggestOutput is the JSON payload of the suggest command.
type SuggestOutput struct {
	Reactant    string               `json:"reactant"`
	Reagent     string               `json:"reagent"`
	Arrows      []ir.ArrowAnnotation `json:"arrows"`
	LibraryHash string               `json:"library_hash"`
	Trace       []engine.RuleTrace   `json:"trace,omitempty"`
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SuggestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "suggest <reactant> <reagent>",
		Short: "Suggest arrows for a reactant and reagent",
		Long: `Evaluate every rule against a reactant and reagent and print the
suggested arrows in rule order.

Exit codes:
  0 - Evaluated (with or without arrows)
  2 - Invalid structure text or rule files

Examples:
  arrowpush suggest C=CC BrBr
  arrowpush suggest C=CC BrBr --explain
  arrowpush suggest C#CC BrBr --rules ./rules --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesDir, "rules", "", "directory of additional CUE rule files")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "show the per-rule trace")

	return cmd
}

func runSuggest(opts *SuggestOptions, reactant, reagent string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := commandLogger(opts.RootOptions, cmd.ErrOrStderr())

	loaded, err := loadEngine(opts.RulesDir, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeRules, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	res, err := loaded.Engine.Suggest(reactant, reagent)
	var pf *engine.ParseFailure
	if errors.As(err, &pf) {
		_ = formatter.Error(ErrCodeInvalidInput, pf.Error(), map[string]string{"side": string(pf.Side)})
		return WrapExitError(ExitCommandError, "invalid input", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}

	out := SuggestOutput{
		Reactant:    reactant,
		Reagent:     reagent,
		Arrows:      res.Arrows,
		LibraryHash: res.LibraryHash,
	}
	if opts.Explain {
		out.Trace = res.Trace
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}
	writeSuggestText(formatter.Writer, out)
	return nil
}

func writeSuggestText(w io.Writer, out SuggestOutput) {
	if len(out.Arrows) == 0 {
		fmt.Fprintln(w, "No arrows.")
	}
	for _, a := range out.Arrows {
		fmt.Fprintf(w, "%d -> %d  %s\n", a.StartAtom, a.EndAtom, a.Type)
	}

	if len(out.Trace) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rules:")
	for _, rt := range out.Trace {
		status := "no match"
		switch {
		case rt.Annotated:
			status = fmt.Sprintf("arrow from match %v", rt.Match)
		case rt.Skipped != "":
			status = "skipped: " + rt.Skipped
		case rt.ReactantMatched && !rt.ReagentMatched:
			status = "reagent did not match"
		case !rt.ReactantMatched && rt.ReagentMatched:
			status = "reactant did not match"
		}
		fmt.Fprintf(w, "  [%d] %s: %s\n", rt.Priority, rt.RuleID, status)
	}
}

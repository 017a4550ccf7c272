package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/arrowpush/internal/ir"
)

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	*RootOptions
	RulesDir string
}

// RulesOutput is the JSON payload of the rules command.
type RulesOutput struct {
	LibraryHash string            `json:"library_hash"`
	Rules       []ir.ReactionRule `json:"rules"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule library in evaluation order",
		Long: `List every rule the engine would evaluate, in priority order, with the
library hash recorded on audit rows.

Examples:
  arrowpush rules
  arrowpush rules --rules ./rules --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesDir, "rules", "", "directory of additional CUE rule files")

	return cmd
}

func runRules(opts *RulesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadEngine(opts.RulesDir, commandLogger(opts.RootOptions, cmd.ErrOrStderr()))
	if err != nil {
		_ = formatter.Error(ErrCodeRules, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	out := RulesOutput{
		LibraryHash: loaded.Engine.LibraryHash(),
		Rules:       loaded.Engine.Rules(),
	}
	if formatter.JSON() {
		return formatter.Success(out)
	}

	w := formatter.Writer
	formatter.VerboseLog("%d rule(s) loaded from %q", loaded.FileRules, opts.RulesDir)
	fmt.Fprintf(w, "%d rule(s), library %s\n", len(out.Rules), out.LibraryHash)
	for _, r := range out.Rules {
		fmt.Fprintf(w, "  [%d] %s: %s + %s -> %s\n", r.Priority, r.ID, r.ReactantPattern, r.ReagentPattern, r.ArrowType)
		if opts.Verbose && r.Description != "" {
			fmt.Fprintf(w, "      %s\n", r.Description)
		}
	}
	return nil
}

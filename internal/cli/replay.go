package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RulesDir string
}

// ReplayRecord holds the replay result for a single audit row.
type ReplayRecord struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Reactant string `json:"reactant"`
	Reagent  string `json:"reagent"`

	// SameLibrary is true when the row was recorded under the current
	// library hash.
	SameLibrary bool `json:"same_library"`

	// Matched is true when re-evaluation produced the recorded result hash.
	Matched bool `json:"matched"`
}

// Drifted reports a changed result under an unchanged library.
func (r ReplayRecord) Drifted() bool {
	return r.SameLibrary && !r.Matched
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	LibraryHash   string               `json:"library_hash"`
	Records       []ReplayRecord       `json:"records"`
	Libraries     []store.LibraryCount `json:"libraries"`
	Total         int                  `json:"total"`
	Matched       int                  `json:"matched"`
	Changed       int                  `json:"changed"` // differ under another library
	Drifted       int                  `json:"drifted"` // differ under the same library
	Deterministic bool                 `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-evaluate the audit log and verify determinism",
		Long: `Re-evaluate every recorded evaluation, in seq order, with the current rule
library and compare result hashes.

Rows recorded under the current library hash must reproduce exactly; a
difference there is drift. Rows recorded under another library are
reported as changed but do not fail the command.

Exit codes:
  0 - No drift
  1 - Drift detected
  2 - Command error (database not found, rule files invalid)

Examples:
  arrowpush replay --db ./arrowpush.db
  arrowpush replay --db ./arrowpush.db --rules ./rules --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RulesDir, "rules", "", "directory of additional CUE rule files")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Opening would create a missing file; replaying nothing is a mistake.
	if _, err := os.Stat(opts.Database); err != nil {
		msg := fmt.Sprintf("database not found: %s", opts.Database)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	loaded, err := loadEngine(opts.RulesDir, commandLogger(opts.RootOptions, cmd.ErrOrStderr()))
	if err != nil {
		_ = formatter.Error(ErrCodeRules, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	result, err := Replay(ctx, st, loaded.Engine)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to replay", err)
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// Replay re-evaluates every audit row with eng, in seq order.
func Replay(ctx context.Context, st *store.Store, eng *engine.Engine) (ReplayResult, error) {
	evals, err := st.ReadEvaluations(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	libs, err := st.CountByLibrary(ctx)
	if err != nil {
		return ReplayResult{}, err
	}

	result := ReplayResult{
		LibraryHash:   eng.LibraryHash(),
		Records:       make([]ReplayRecord, 0, len(evals)),
		Libraries:     libs,
		Total:         len(evals),
		Deterministic: true,
	}

	for _, ev := range evals {
		hash, err := reevaluate(eng, ev)
		if err != nil {
			return ReplayResult{}, fmt.Errorf("replay seq %d: %w", ev.Seq, err)
		}

		rec := ReplayRecord{
			ID:          ev.ID,
			Seq:         ev.Seq,
			Reactant:    ev.Reactant,
			Reagent:     ev.Reagent,
			SameLibrary: ev.LibraryHash == result.LibraryHash,
			Matched:     hash == ev.ResultHash,
		}
		switch {
		case rec.Matched:
			result.Matched++
		case rec.Drifted():
			result.Drifted++
			result.Deterministic = false
		default:
			result.Changed++
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// reevaluate returns the result hash the engine produces now for ev.
// Unparsable input hashes as an empty arrow list, as it was recorded.
func reevaluate(eng *engine.Engine, ev ir.Evaluation) (string, error) {
	arrows := []ir.ArrowAnnotation{}
	res, err := eng.Suggest(ev.Reactant, ev.Reagent)
	var pf *engine.ParseFailure
	switch {
	case errors.As(err, &pf):
	case err != nil:
		return "", err
	default:
		arrows = res.Arrows
	}
	return ir.ResultHash(arrows)
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	if result.Deterministic {
		return formatter.Success(result)
	}
	if err := formatter.Failure(ErrCodeDrift, "determinism verification failed", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "determinism verification failed")
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: %d evaluation(s)\n", result.Total)
	fmt.Fprintf(w, "  Matched: %d, Changed: %d, Drifted: %d\n", result.Matched, result.Changed, result.Drifted)
	if formatter.Verbose {
		for _, lib := range result.Libraries {
			marker := ""
			if lib.LibraryHash == result.LibraryHash {
				marker = " (current)"
			}
			fmt.Fprintf(w, "  Library %s: %d row(s)%s\n", lib.LibraryHash, lib.Count, marker)
		}
	}
	fmt.Fprintln(w)

	for _, rec := range result.Records {
		switch {
		case rec.Drifted():
			fmt.Fprintf(w, "\u2717 seq %d: %s + %s drifted\n", rec.Seq, rec.Reactant, rec.Reagent)
		case !rec.Matched:
			fmt.Fprintf(w, "~ seq %d: %s + %s changed (recorded under another library)\n", rec.Seq, rec.Reactant, rec.Reagent)
		case formatter.Verbose:
			fmt.Fprintf(w, "\u2713 seq %d: %s + %s\n", rec.Seq, rec.Reactant, rec.Reagent)
		}
	}

	if result.Deterministic {
		fmt.Fprintln(w, "\u2713 All evaluations verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "\u2717 Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/arrowpush/internal/compiler"
	"github.com/roach88/arrowpush/internal/molecule"
	"github.com/roach88/arrowpush/internal/rules"
)

// RuleFileError is a validation error located in a rule file.
type RuleFileError struct {
	File string `json:"file"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool            `json:"valid"`
	Files  int             `json:"files"`
	Rules  int             `json:"rules"`
	Errors []RuleFileError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Validate rule files without serving",
		Long: `Compile and register every *.cue rule file in a directory on top of the
built-in rules, reporting all problems instead of stopping at the first.

Exit codes:
  0 - All rule files valid
  1 - One or more rule files invalid
  2 - Command error (directory missing, no rule files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		msg := fmt.Sprintf("rules directory not found: %s", dir)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	files, err := rules.RuleFiles(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to scan rules directory", err)
	}
	if len(files) == 0 {
		msg := fmt.Sprintf("no CUE files found in %s", dir)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", len(files), dir)

	result := ValidateRuleFiles(files)

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "\u2713 All rule files valid (%d file(s), %d rule(s))\n", result.Files, result.Rules)
	return nil
}

// ValidateRuleFiles loads each file into a library holding the built-in
// rules and collects every error. A failing file does not stop the rest.
func ValidateRuleFiles(files []string) ValidationResult {
	mols := molecule.NewService()
	result := ValidationResult{Files: len(files)}

	lib, err := rules.Default(mols)
	if err != nil {
		result.Errors = append(result.Errors, RuleFileError{
			File:            rules.BuiltinFile,
			ValidationError: compiler.ValidationError{Field: "rules", Message: err.Error(), Code: ErrCodeRules},
		})
		return result
	}
	builtin := lib.Len()

	for _, path := range files {
		if err := rules.LoadFile(lib, path); err != nil {
			result.Errors = append(result.Errors, fileErrors(path, err)...)
		}
	}

	result.Rules = lib.Len() - builtin
	result.Valid = len(result.Errors) == 0
	return result
}

// fileErrors flattens a rule loading error into located validation errors.
func fileErrors(path string, err error) []RuleFileError {
	var le *rules.LoadError
	if errors.As(err, &le) && len(le.Validation) > 0 {
		out := make([]RuleFileError, len(le.Validation))
		for i, v := range le.Validation {
			out[i] = RuleFileError{File: path, ValidationError: v}
		}
		return out
	}

	ve := compiler.ValidationError{Field: "rules", Message: err.Error(), Code: ErrCodeGeneric}

	var ce *compiler.CompileError
	var re *rules.RegistrationError
	switch {
	case errors.As(err, &ce):
		ve.Field = ce.Field
		ve.Message = ce.Message
		ve.Code = ErrCodeRules
		if ce.Pos.IsValid() {
			ve.Line = ce.Pos.Line()
		}
	case errors.As(err, &re):
		ve.Field = re.Field
		ve.Message = re.Error()
		ve.Code = string(re.Code)
	case errors.Is(err, os.ErrNotExist):
		ve.Code = ErrCodeNotFound
	}
	return []RuleFileError{{File: path, ValidationError: ve}}
}

// outputValidationErrors outputs all validation errors and returns the
// exit error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.Failure(first.Code, first.Message, result); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintln(w, "\u2717 Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "%s:%d\n", e.File, e.Line)
		} else {
			fmt.Fprintln(w, e.File)
		}
		fmt.Fprintf(w, "  %s: %s\n\n", e.Code, e.Message)
	}
	return exitErr
}

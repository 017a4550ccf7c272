package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/arrowpush/internal/ir"
)

// CompileRule parses a single CUE rule struct into a ReactionRule.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be one element of a rules list, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`rules: [{id: "x", reactant: "C=C", ...}]`)
//	rule, err := CompileRule(v.LookupPath(cue.ParsePath("rules[0]")))
//
// Priority is left at zero; the library assigns it at registration.
func CompileRule(v cue.Value) (*ir.ReactionRule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "rule",
			Message: fmt.Sprintf("rule must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	rule := &ir.ReactionRule{}
	var err error

	if rule.ID, err = requiredString(v, "id"); err != nil {
		return nil, err
	}
	if rule.ReactantPattern, err = requiredString(v, "reactant"); err != nil {
		return nil, err
	}
	if rule.ReagentPattern, err = requiredString(v, "reagent"); err != nil {
		return nil, err
	}

	arrow, err := requiredString(v, "arrow")
	if err != nil {
		return nil, err
	}
	rule.ArrowType = ir.ArrowType(arrow)

	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		rule.Description = desc
	}

	// Catch typos like "reactnt" instead of silently ignoring them
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		switch iter.Label() {
		case "id", "reactant", "reagent", "arrow", "description":
		default:
			return nil, &CompileError{
				Field:   iter.Label(),
				Message: "unknown rule field",
				Pos:     iter.Value().Pos(),
			}
		}
	}

	return rule, nil
}

// CompileRules compiles the top-level `rules` list of a CUE document.
// Rules are returned in list order. A document without a `rules` field
// compiles to an empty list.
func CompileRules(v cue.Value) ([]ir.ReactionRule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, nil
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []ir.ReactionRule
	for iter.Next() {
		rule, err := CompileRule(iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

// requiredString looks up a concrete string field.
func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a string", field),
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

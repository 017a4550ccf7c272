package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/arrowpush/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedIRType = "E200" // unsupported IR type for validation

	// ReactionRule errors (E201-E209)
	ErrRuleIDEmpty       = "E201" // id is required
	ErrRuleIDFormat      = "E202" // id must be snake_case
	ErrRuleReactantEmpty = "E203" // reactant pattern is required
	ErrRuleReagentEmpty  = "E204" // reagent pattern is required
	ErrRuleUnknownArrow  = "E205" // arrow type not in the closed set
	ErrRuleDuplicateID   = "E206" // id used by an earlier rule
	ErrRulePatternSpace  = "E207" // pattern text contains whitespace
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled rules against schema rules.
// Returns all errors found (does not fail-fast).
// Supports a single ReactionRule or an ordered rule list; lists are also
// checked for duplicate IDs.
//
// Pattern syntax is not checked here; the library compiles patterns at
// registration.
func Validate(v any) []ValidationError {
	switch r := v.(type) {
	case *ir.ReactionRule:
		return validateRule(r, "")
	case ir.ReactionRule:
		return validateRule(&r, "")
	case []ir.ReactionRule:
		return validateRules(r)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateRules(rules []ir.ReactionRule) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)

	for i := range rules {
		prefix := fmt.Sprintf("rules[%d].", i)
		errs = append(errs, validateRule(&rules[i], prefix)...)

		// E206: duplicate id
		id := rules[i].ID
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			errs = append(errs, ValidationError{
				Field:   prefix + "id",
				Message: fmt.Sprintf("duplicate rule id %q (first defined at rules[%d])", id, first),
				Code:    ErrRuleDuplicateID,
			})
			continue
		}
		seen[id] = i
	}

	return errs
}

// validateRule validates one rule. prefix is prepended to field paths.
func validateRule(rule *ir.ReactionRule, prefix string) []ValidationError {
	var errs []ValidationError

	// E201/E202: id
	if strings.TrimSpace(rule.ID) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + "id",
			Message: "id is required and must be non-empty",
			Code:    ErrRuleIDEmpty,
		})
	} else if !ruleIDPattern.MatchString(rule.ID) {
		errs = append(errs, ValidationError{
			Field:   prefix + "id",
			Message: fmt.Sprintf("invalid rule id %q, expected snake_case like \"alkene_bromination\"", rule.ID),
			Code:    ErrRuleIDFormat,
		})
	}

	// E203: reactant
	if strings.TrimSpace(rule.ReactantPattern) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + "reactant",
			Message: "reactant pattern is required",
			Code:    ErrRuleReactantEmpty,
		})
	} else if hasWhitespace(rule.ReactantPattern) {
		errs = append(errs, ValidationError{
			Field:   prefix + "reactant",
			Message: fmt.Sprintf("pattern %q must not contain whitespace", rule.ReactantPattern),
			Code:    ErrRulePatternSpace,
		})
	}

	// E204: reagent
	if strings.TrimSpace(rule.ReagentPattern) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + "reagent",
			Message: "reagent pattern is required",
			Code:    ErrRuleReagentEmpty,
		})
	} else if hasWhitespace(rule.ReagentPattern) {
		errs = append(errs, ValidationError{
			Field:   prefix + "reagent",
			Message: fmt.Sprintf("pattern %q must not contain whitespace", rule.ReagentPattern),
			Code:    ErrRulePatternSpace,
		})
	}

	// E205: arrow type
	if !rule.ArrowType.Valid() {
		errs = append(errs, ValidationError{
			Field:   prefix + "arrow",
			Message: fmt.Sprintf("unknown arrow type %q, must be one of %s", rule.ArrowType, arrowTypeList()),
			Code:    ErrRuleUnknownArrow,
		})
	}

	return errs
}

// ruleIDPattern matches snake_case identifiers.
var ruleIDPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

func hasWhitespace(s string) bool {
	return strings.ContainsAny(s, " \t\r\n")
}

// arrowTypeList renders the closed arrow set in a fixed order.
func arrowTypeList() string {
	types := []ir.ArrowType{
		ir.ArrowPiAttack,
		ir.ArrowLonePairAttack,
		ir.ArrowSigmaCleavage,
		ir.ArrowProtonTransfer,
	}
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}

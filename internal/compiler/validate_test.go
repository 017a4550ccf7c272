package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arrowpush/internal/ir"
)

func validRule() ir.ReactionRule {
	return ir.ReactionRule{
		ID:              "alkene_bromination",
		ReactantPattern: "C=C",
		ReagentPattern:  "BrBr",
		ArrowType:       ir.ArrowPiAttack,
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateRuleValid(t *testing.T) {
	rule := validRule()
	assert.Empty(t, Validate(&rule))
	assert.Empty(t, Validate(rule))
}

func TestValidateRuleCollectsAllErrors(t *testing.T) {
	rule := ir.ReactionRule{
		ID:              "",
		ReactantPattern: " ",
		ReagentPattern:  "",
		ArrowType:       "push",
	}

	errs := Validate(&rule)
	assert.Equal(t, []string{ErrRuleIDEmpty, ErrRuleReactantEmpty, ErrRuleReagentEmpty, ErrRuleUnknownArrow}, codes(errs))
}

func TestValidateRuleFieldChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ir.ReactionRule)
		code   string
		field  string
	}{
		{"camel case id", func(r *ir.ReactionRule) { r.ID = "alkeneBromination" }, ErrRuleIDFormat, "id"},
		{"leading digit id", func(r *ir.ReactionRule) { r.ID = "1_rule" }, ErrRuleIDFormat, "id"},
		{"whitespace in reactant", func(r *ir.ReactionRule) { r.ReactantPattern = "C=C C" }, ErrRulePatternSpace, "reactant"},
		{"whitespace in reagent", func(r *ir.ReactionRule) { r.ReagentPattern = "Br Br" }, ErrRulePatternSpace, "reagent"},
		{"unknown arrow", func(r *ir.ReactionRule) { r.ArrowType = "radical" }, ErrRuleUnknownArrow, "arrow"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule := validRule()
			tc.mutate(&rule)

			errs := Validate(&rule)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.code, errs[0].Code)
			assert.Equal(t, tc.field, errs[0].Field)
		})
	}
}

func TestValidateRuleListDuplicateIDs(t *testing.T) {
	rules := []ir.ReactionRule{validRule(), validRule()}
	rules[1].ReactantPattern = "C#C"

	errs := Validate(rules)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrRuleDuplicateID, errs[0].Code)
	assert.Equal(t, "rules[1].id", errs[0].Field)
	assert.Contains(t, errs[0].Message, "rules[0]")
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "id", Message: "bad", Code: ErrRuleIDFormat}
	assert.Equal(t, "[E202] id: bad", e.Error())

	e.Line = 4
	assert.Equal(t, "[E202] line 4: id: bad", e.Error())
}

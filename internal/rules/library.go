package rules

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/molecule"
)

// PatternCompiler compiles pattern text. Implemented by *molecule.Service.
type PatternCompiler interface {
	CompilePattern(text string) (*molecule.Pattern, error)
}

// Rule is a registered rule with its compiled patterns.
type Rule struct {
	ir.ReactionRule

	Reactant *molecule.Pattern
	Reagent  *molecule.Pattern
}

// Library is the ordered, append-only rule set.
//
// INVARIANTS:
//   - rules order NEVER changes; Priority == index
//   - rule IDs are unique
//   - after Freeze, rules is never written again
type Library struct {
	compiler PatternCompiler

	mu     sync.Mutex // serializes Register and Freeze
	frozen atomic.Bool
	rules  []Rule
	ids    map[string]struct{}
	hash   string // set by Freeze
}

// NewLibrary creates an empty library that compiles patterns with c.
func NewLibrary(c PatternCompiler) *Library {
	return &Library{
		compiler: c,
		ids:      make(map[string]struct{}),
	}
}

// Register appends rule to the library.
//
// The rule's Priority field is ignored and replaced with the registration
// index. Returns ErrFrozen after Freeze, or *RegistrationError when the rule
// is invalid; a refused rule leaves the library unchanged.
func (l *Library) Register(rule ir.ReactionRule) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen.Load() {
		return ErrFrozen
	}

	if rule.ID == "" {
		return &RegistrationError{
			Code:    ErrCodeEmptyID,
			Field:   "id",
			Message: "rule id is required",
		}
	}
	if _, dup := l.ids[rule.ID]; dup {
		return &RegistrationError{
			Code:    ErrCodeDuplicateID,
			RuleID:  rule.ID,
			Field:   "id",
			Message: "rule id already registered",
		}
	}
	if !rule.ArrowType.Valid() {
		return &RegistrationError{
			Code:    ErrCodeUnknownArrow,
			RuleID:  rule.ID,
			Field:   "arrow",
			Message: fmt.Sprintf("unknown arrow type %q", rule.ArrowType),
		}
	}

	reactant, err := l.compiler.CompilePattern(rule.ReactantPattern)
	if err != nil {
		return &RegistrationError{
			Code:    ErrCodeBadPattern,
			RuleID:  rule.ID,
			Field:   "reactant",
			Message: "reactant pattern does not compile",
			Err:     err,
		}
	}
	if reactant.NumAtoms() < 2 {
		return &RegistrationError{
			Code:    ErrCodeReactantTooSmall,
			RuleID:  rule.ID,
			Field:   "reactant",
			Message: fmt.Sprintf("reactant pattern %q has %d atom(s), need at least 2", rule.ReactantPattern, reactant.NumAtoms()),
		}
	}

	reagent, err := l.compiler.CompilePattern(rule.ReagentPattern)
	if err != nil {
		return &RegistrationError{
			Code:    ErrCodeBadPattern,
			RuleID:  rule.ID,
			Field:   "reagent",
			Message: "reagent pattern does not compile",
			Err:     err,
		}
	}

	rule.Priority = len(l.rules)
	l.rules = append(l.rules, Rule{ReactionRule: rule, Reactant: reactant, Reagent: reagent})
	l.ids[rule.ID] = struct{}{}
	return nil
}

// MustRegister is like Register but panics on error.
func (l *Library) MustRegister(rule ir.ReactionRule) {
	if err := l.Register(rule); err != nil {
		panic(err)
	}
}

// Freeze closes the library to registration and computes its hash.
// Calling Freeze more than once is a no-op.
func (l *Library) Freeze() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen.Load() {
		return nil
	}
	h, err := ir.LibraryHash(l.definitions())
	if err != nil {
		return fmt.Errorf("hash library: %w", err)
	}
	l.hash = h
	l.frozen.Store(true)
	return nil
}

// Frozen reports whether Freeze has been called.
func (l *Library) Frozen() bool {
	return l.frozen.Load()
}

// Len returns the number of registered rules.
func (l *Library) Len() int {
	if l.frozen.Load() {
		return len(l.rules)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rules)
}

// Rules returns a copy of the rule definitions in registration order.
func (l *Library) Rules() []ir.ReactionRule {
	if l.frozen.Load() {
		return l.definitions()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.definitions()
}

// Compiled returns the registered rules with compiled patterns, in
// registration order. The library must be frozen; the returned slice is
// shared and must not be modified.
func (l *Library) Compiled() []Rule {
	if !l.frozen.Load() {
		panic("rules: Compiled called before Freeze")
	}
	return l.rules
}

// Hash returns the content hash of the ordered rule set.
func (l *Library) Hash() (string, error) {
	if l.frozen.Load() {
		return l.hash, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return ir.LibraryHash(l.definitions())
}

func (l *Library) definitions() []ir.ReactionRule {
	out := make([]ir.ReactionRule, len(l.rules))
	for i, r := range l.rules {
		out[i] = r.ReactionRule
	}
	return out
}

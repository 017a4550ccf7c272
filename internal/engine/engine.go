package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/molecule"
	"github.com/roach88/arrowpush/internal/rules"
)

// MoleculeService is the structure-handling collaborator.
// Implemented by *molecule.Service.
type MoleculeService interface {
	Parse(text string) (*molecule.Molecule, error)
	Matches(m *molecule.Molecule, p *molecule.Pattern) bool
	FirstMatch(m *molecule.Molecule, p *molecule.Pattern) ([]int, bool)
}

// Observer receives per-rule evaluation events. Implementations must be
// safe for concurrent use.
type Observer interface {
	RuleMatched(ruleID string)
	AnnotationFailed(ruleID string)
}

type nopObserver struct{}

func (nopObserver) RuleMatched(string)      {}
func (nopObserver) AnnotationFailed(string) {}

// Engine evaluates a frozen rule library.
//
// INVARIANTS:
//   - rules order NEVER changes after construction
//   - no field is written after New returns
type Engine struct {
	svc         MoleculeService
	rules       []rules.Rule // registration order
	libraryHash string
	logger      *slog.Logger
	observer    Observer
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger used for per-rule diagnostics.
// Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers an observer for rule matches and skipped rules.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an Engine over lib. The library is frozen if it is not
// already; no rule can be added once an engine exists.
func New(lib *rules.Library, svc MoleculeService, opts ...EngineOption) (*Engine, error) {
	if lib == nil {
		return nil, errors.New("engine: nil rule library")
	}
	if svc == nil {
		return nil, errors.New("engine: nil molecule service")
	}
	if err := lib.Freeze(); err != nil {
		return nil, fmt.Errorf("freeze rule library: %w", err)
	}
	hash, err := lib.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash rule library: %w", err)
	}

	e := &Engine{
		svc:         svc,
		rules:       lib.Compiled(),
		libraryHash: hash,
		logger:      slog.Default(),
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// LibraryHash returns the hash of the rule set this engine evaluates.
func (e *Engine) LibraryHash() string {
	return e.libraryHash
}

// Rules returns the evaluated rule definitions in priority order.
func (e *Engine) Rules() []ir.ReactionRule {
	out := make([]ir.ReactionRule, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.ReactionRule
	}
	return out
}

// RuleTrace records how one rule fared in a single evaluation.
type RuleTrace struct {
	RuleID          string `json:"rule_id"`
	Priority        int    `json:"priority"`
	ReactantMatched bool   `json:"reactant_matched"`
	ReagentMatched  bool   `json:"reagent_matched"`
	Match           []int  `json:"match,omitempty"`
	Annotated       bool   `json:"annotated"`
	Skipped         string `json:"skipped,omitempty"` // annotation error code
}

// Result is the outcome of Suggest.
type Result struct {
	Arrows      []ir.ArrowAnnotation `json:"arrows"`
	Trace       []RuleTrace          `json:"trace"`
	AtomCount   int                  `json:"atom_count"`
	LibraryHash string               `json:"library_hash"`
}

// Evaluate returns the arrows every matching rule contributes, in rule
// order. Unparsable input yields an empty, non-nil slice; it never returns
// an error.
func (e *Engine) Evaluate(reactant, reagent string) []ir.ArrowAnnotation {
	res, err := e.Suggest(reactant, reagent)
	if err != nil {
		return []ir.ArrowAnnotation{}
	}
	return res.Arrows
}

// Suggest evaluates like Evaluate but reports unparsable input as a
// *ParseFailure and returns a per-rule trace.
//
// The reactant is parsed first; when both inputs are invalid the reactant
// failure is reported.
func (e *Engine) Suggest(reactant, reagent string) (*Result, error) {
	mol, err := e.svc.Parse(reactant)
	if err != nil {
		e.logger.Debug("reactant rejected", "reactant", reactant, "error", err)
		return nil, &ParseFailure{Side: SideReactant, Input: reactant, Err: err}
	}
	rg, err := e.svc.Parse(reagent)
	if err != nil {
		e.logger.Debug("reagent rejected", "reagent", reagent, "error", err)
		return nil, &ParseFailure{Side: SideReagent, Input: reagent, Err: err}
	}

	res := &Result{
		Arrows:      make([]ir.ArrowAnnotation, 0, 1),
		Trace:       make([]RuleTrace, 0, len(e.rules)),
		AtomCount:   mol.NumAtoms(),
		LibraryHash: e.libraryHash,
	}

	for _, r := range e.rules {
		tr, arrow := e.evaluateRule(r, mol, rg)
		if tr.Annotated {
			res.Arrows = append(res.Arrows, arrow)
		}
		res.Trace = append(res.Trace, tr)
	}

	e.logger.Debug("evaluation complete",
		"reactant", reactant,
		"reagent", reagent,
		"rules", len(e.rules),
		"arrows", len(res.Arrows),
	)
	return res, nil
}

// evaluateRule tests one rule. Both patterns are always tested so the trace
// reflects each side independently.
func (e *Engine) evaluateRule(r rules.Rule, mol, rg *molecule.Molecule) (RuleTrace, ir.ArrowAnnotation) {
	tr := RuleTrace{RuleID: r.ID, Priority: r.Priority}

	match, ok := e.svc.FirstMatch(mol, r.Reactant)
	tr.ReactantMatched = ok
	tr.ReagentMatched = e.svc.Matches(rg, r.Reagent)

	if !tr.ReactantMatched || !tr.ReagentMatched {
		e.logger.Debug("rule not matched",
			"rule_id", r.ID,
			"reactant_matched", tr.ReactantMatched,
			"reagent_matched", tr.ReagentMatched,
		)
		return tr, ir.ArrowAnnotation{}
	}

	tr.Match = match
	e.observer.RuleMatched(r.ID)

	arrow, err := Annotate(match, mol.NumAtoms(), r.ArrowType)
	if err != nil {
		var ae *AnnotationError
		if errors.As(err, &ae) {
			tr.Skipped = string(ae.Code)
		}
		e.observer.AnnotationFailed(r.ID)
		e.logger.Warn("rule skipped: annotation failed",
			"rule_id", r.ID,
			"match", match,
			"error", err,
		)
		return tr, ir.ArrowAnnotation{}
	}

	tr.Annotated = true
	e.logger.Debug("rule matched",
		"rule_id", r.ID,
		"priority", r.Priority,
		"match", match,
	)
	return tr, arrow
}

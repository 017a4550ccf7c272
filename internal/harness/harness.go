package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/molecule"
	"github.com/roach88/arrowpush/internal/rules"
	"github.com/roach88/arrowpush/internal/store"
	"github.com/roach88/arrowpush/internal/testutil"
)

// Harness is the scenario execution engine. It drives the real arrow
// engine and records every case in an audit store under a deterministic
// clock and a fixed request ID.
type Harness struct {
	engine     *engine.Engine
	recorder   *store.Recorder
	requestIDs *testutil.FixedRequestIDGenerator
	logger     *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory audit store.
//
// Execution flow:
// 1. Build the rule library (built-in rules unless no_builtin, then rule files)
// 2. Evaluate every case in order and record it
// 3. Check each case's expect clause
// 4. Evaluate assertions against the trace and the audit store
//
// An error is returned only when the scenario cannot run; failed
// expectations are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store access.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := buildEngine(scenario, logger)
	if err != nil {
		return nil, err
	}

	clock := testutil.NewDeterministicClock()
	h := &Harness{
		engine:     eng,
		recorder:   store.NewRecorderWithSequencer(st, clock),
		requestIDs: testutil.NewFixedRequestIDGenerator(scenario.RequestID),
		logger:     logger,
	}

	result := NewResult()
	result.LibraryHash = eng.LibraryHash()

	if err := h.executeCases(ctx, scenario.Cases, result); err != nil {
		return nil, fmt.Errorf("failed to execute cases: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func buildEngine(scenario *Scenario, logger *slog.Logger) (*engine.Engine, error) {
	mols := molecule.NewService()

	var lib *rules.Library
	if scenario.NoBuiltin {
		lib = rules.NewLibrary(mols)
	} else {
		var err error
		if lib, err = rules.Default(mols); err != nil {
			return nil, fmt.Errorf("load built-in rules: %w", err)
		}
	}
	for _, path := range scenario.Rules {
		if err := rules.LoadFile(lib, path); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	eng, err := engine.New(lib, mols, engine.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return eng, nil
}

// executeCases evaluates, records and checks every case.
func (h *Harness) executeCases(ctx context.Context, cases []Case, result *Result) error {
	for i, c := range cases {
		ev := TraceEvent{
			Case:     c.Name,
			Reactant: c.Reactant,
			Reagent:  c.Reagent,
			Arrows:   []ir.ArrowAnnotation{},
			Rules:    []engine.RuleTrace{},
		}
		entry := store.Entry{
			RequestID:   h.requestIDs.Generate(),
			Reactant:    c.Reactant,
			Reagent:     c.Reagent,
			LibraryHash: h.engine.LibraryHash(),
		}

		res, err := h.engine.Suggest(c.Reactant, c.Reagent)
		var pf *engine.ParseFailure
		switch {
		case errors.As(err, &pf):
			ev.Invalid = pf.Side
			entry.ParseError = pf.Error()
		case err != nil:
			return fmt.Errorf("case %d (%s): %w", i, c.Name, err)
		default:
			ev.Arrows = res.Arrows
			ev.Rules = res.Trace
			entry.Arrows = res.Arrows
		}

		rec, err := h.recorder.Record(ctx, entry)
		if err != nil {
			return fmt.Errorf("case %d (%s): record: %w", i, c.Name, err)
		}
		ev.Seq = rec.Seq
		result.AddTrace(ev)

		if c.Expect != nil {
			if msg := checkExpect(c, ev); msg != "" {
				result.AddError(msg)
			}
		}

		h.logger.Info("case evaluated",
			"case", c.Name,
			"seq", ev.Seq,
			"arrows", len(ev.Arrows),
			"invalid", ev.Invalid,
		)
	}
	return nil
}

// checkExpect compares a case's evaluation with its expect clause and
// returns a failure message, or "" when it matches.
func checkExpect(c Case, ev TraceEvent) string {
	want := c.Expect
	if want.Invalid != "" {
		if string(ev.Invalid) != want.Invalid {
			return fmt.Sprintf("case %s: expected %s to be invalid, got invalid=%q", c.Name, want.Invalid, ev.Invalid)
		}
		return ""
	}
	if ev.Invalid != "" {
		return fmt.Sprintf("case %s: unexpected parse failure on %s", c.Name, ev.Invalid)
	}

	expected := make([]ir.ArrowAnnotation, len(want.Arrows))
	for i, a := range want.Arrows {
		expected[i] = a.Annotation()
	}
	actual := ev.Arrows
	if actual == nil {
		actual = []ir.ArrowAnnotation{}
	}
	if !reflect.DeepEqual(expected, actual) {
		return fmt.Sprintf("case %s: expected arrows %s, got %s", c.Name, formatArrows(expected), formatArrows(actual))
	}
	return ""
}

func formatArrows(arrows []ir.ArrowAnnotation) string {
	if len(arrows) == 0 {
		return "[]"
	}
	s := "["
	for i, a := range arrows {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d->%d:%s", a.StartAtom, a.EndAtom, a.Type)
	}
	return s + "]"
}

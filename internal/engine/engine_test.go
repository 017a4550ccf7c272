package engine

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/molecule"
	"github.com/roach88/arrowpush/internal/rules"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newDefaultEngine builds an engine over the built-in library plus extra rules.
func newDefaultEngine(t *testing.T, extra ...ir.ReactionRule) *Engine {
	t.Helper()
	svc := molecule.NewService()
	lib, err := rules.Default(svc)
	require.NoError(t, err)
	for _, r := range extra {
		require.NoError(t, lib.Register(r))
	}
	e, err := New(lib, svc, WithLogger(quietLogger()))
	require.NoError(t, err)
	return e
}

func TestEvaluate_AlkeneBromination(t *testing.T) {
	e := newDefaultEngine(t)

	got := e.Evaluate("C=CC", "BrBr")
	assert.Equal(t, []ir.ArrowAnnotation{
		{StartAtom: 0, EndAtom: 1, Type: ir.ArrowPiAttack},
	}, got)
}

func TestEvaluate_UnparsableInputIsEmpty(t *testing.T) {
	e := newDefaultEngine(t)

	tests := []struct {
		name     string
		reactant string
		reagent  string
	}{
		{"bad reactant", "C(=C", "BrBr"},
		{"bad reagent", "C=CC", "Br("},
		{"both bad", "xyz", "!!"},
		{"empty reactant", "", "BrBr"},
		{"empty reagent", "C=CC", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Evaluate(tc.reactant, tc.reagent)
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestEvaluate_NoDoubleBondIsEmpty(t *testing.T) {
	e := newDefaultEngine(t)

	for _, reactant := range []string{"CCC", "CCO", "C#C", "c1ccccc1", "C1=CC=CC=C1", "C1=CC=NC=C1", "C=O"} {
		for _, reagent := range []string{"BrBr", "ClCl", "O"} {
			got := e.Evaluate(reactant, reagent)
			assert.Empty(t, got, "reactant=%s reagent=%s", reactant, reagent)
		}
	}
}

func TestEvaluate_StyreneAttacksVinylOnly(t *testing.T) {
	e := newDefaultEngine(t)

	for _, reactant := range []string{"C=Cc1ccccc1", "C=CC1=CC=CC=C1"} {
		got := e.Evaluate(reactant, "BrBr")
		assert.Equal(t, []ir.ArrowAnnotation{
			{StartAtom: 0, EndAtom: 1, Type: ir.ArrowPiAttack},
		}, got, "reactant=%s", reactant)
	}
}

func TestEvaluate_NonBromineReagentIsEmpty(t *testing.T) {
	e := newDefaultEngine(t)

	for _, reagent := range []string{"ClCl", "O", "[Br-]", "CBr", "II"} {
		got := e.Evaluate("C=CC", reagent)
		assert.Empty(t, got, "reagent=%s", reagent)
	}
}

func TestEvaluate_BromineInsideLargerReagent(t *testing.T) {
	e := newDefaultEngine(t)

	got := e.Evaluate("CC=C", "BrBr.O")
	assert.Equal(t, []ir.ArrowAnnotation{
		{StartAtom: 1, EndAtom: 2, Type: ir.ArrowPiAttack},
	}, got)
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newDefaultEngine(t, ir.ReactionRule{
		ID:              "alkene_chlorination",
		ReactantPattern: "C=C",
		ReagentPattern:  "ClCl",
		ArrowType:       ir.ArrowPiAttack,
	})

	first := e.Evaluate("CC=CC=C", "BrBr")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, e.Evaluate("CC=CC=C", "BrBr"))
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := newDefaultEngine(t)
	before := e.Rules()
	hash := e.LibraryHash()

	first := e.Evaluate("C=CC", "BrBr")
	snapshot := append([]ir.ArrowAnnotation(nil), first...)

	for i := 0; i < 10; i++ {
		_ = e.Evaluate("C=CC", "BrBr")
		_ = e.Evaluate("CC=C", "BrBr")
	}

	assert.Equal(t, snapshot, first, "previous result must not change")
	assert.Equal(t, before, e.Rules())
	assert.Equal(t, hash, e.LibraryHash())
}

func TestEvaluate_Extensibility(t *testing.T) {
	protonation := ir.ReactionRule{
		ID:              "carbonyl_protonation",
		ReactantPattern: "C=O",
		ReagentPattern:  "[H+]",
		ArrowType:       ir.ArrowLonePairAttack,
	}

	base := newDefaultEngine(t)
	extended := newDefaultEngine(t, protonation)

	assert.Empty(t, base.Evaluate("CC=O", "[H+]"))
	assert.Equal(t, []ir.ArrowAnnotation{
		{StartAtom: 1, EndAtom: 2, Type: ir.ArrowLonePairAttack},
	}, extended.Evaluate("CC=O", "[H+]"))

	// Prior rules unaffected.
	assert.Equal(t, base.Evaluate("C=CC", "BrBr"), extended.Evaluate("C=CC", "BrBr"))
}

func TestEvaluate_MultipleRulesInPriorityOrder(t *testing.T) {
	e := newDefaultEngine(t,
		ir.ReactionRule{ID: "allylic_pi", ReactantPattern: "C=CC", ReagentPattern: "BrBr", ArrowType: ir.ArrowSigmaCleavage},
		ir.ReactionRule{ID: "any_bromine", ReactantPattern: "CC", ReagentPattern: "Br", ArrowType: ir.ArrowProtonTransfer},
	)

	got := e.Evaluate("C=CC", "BrBr")
	assert.Equal(t, []ir.ArrowAnnotation{
		{StartAtom: 0, EndAtom: 1, Type: ir.ArrowPiAttack},
		{StartAtom: 0, EndAtom: 1, Type: ir.ArrowSigmaCleavage},
		{StartAtom: 1, EndAtom: 2, Type: ir.ArrowProtonTransfer},
	}, got)
}

func TestEvaluate_ConcurrentUse(t *testing.T) {
	e := newDefaultEngine(t)
	want := e.Evaluate("C=CC", "BrBr")

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					got := e.Evaluate("C=CC", "BrBr")
					if len(got) != 1 || got[0] != want[0] {
						errs <- "unexpected result"
						return
					}
				} else if got := e.Evaluate("CCC", "BrBr"); len(got) != 0 {
					errs <- "unexpected arrows"
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestSuggest_ParseFailure(t *testing.T) {
	e := newDefaultEngine(t)

	res, err := e.Suggest("C(=C", "BrBr")
	require.Error(t, err)
	assert.Nil(t, res)

	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, SideReactant, pf.Side)
	assert.Equal(t, "C(=C", pf.Input)
	assert.True(t, molecule.IsParseError(err))
	assert.True(t, IsParseFailure(err))

	_, err = e.Suggest("C=C", "Br(")
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, SideReagent, pf.Side)
}

func TestSuggest_Trace(t *testing.T) {
	e := newDefaultEngine(t, ir.ReactionRule{
		ID:              "alkene_chlorination",
		ReactantPattern: "C=C",
		ReagentPattern:  "ClCl",
		ArrowType:       ir.ArrowPiAttack,
	})

	res, err := e.Suggest("C=CC", "BrBr")
	require.NoError(t, err)

	assert.Equal(t, 3, res.AtomCount)
	assert.Equal(t, e.LibraryHash(), res.LibraryHash)
	assert.Equal(t, []RuleTrace{
		{RuleID: "alkene_bromination", Priority: 0, ReactantMatched: true, ReagentMatched: true, Match: []int{0, 1}, Annotated: true},
		{RuleID: "alkene_chlorination", Priority: 1, ReactantMatched: true, ReagentMatched: false},
	}, res.Trace)
}

func TestSuggest_ReagentTestedIndependently(t *testing.T) {
	e := newDefaultEngine(t)

	res, err := e.Suggest("CCC", "BrBr")
	require.NoError(t, err)
	require.Len(t, res.Trace, 1)
	assert.False(t, res.Trace[0].ReactantMatched)
	assert.True(t, res.Trace[0].ReagentMatched)
	assert.Empty(t, res.Arrows)
	assert.NotNil(t, res.Arrows)
}

// skewedService returns a forged match for one pattern, to exercise the
// annotation bounds check.
type skewedService struct {
	*molecule.Service
	pattern string
	match   []int
}

func (s skewedService) FirstMatch(m *molecule.Molecule, p *molecule.Pattern) ([]int, bool) {
	if p.Text() == s.pattern {
		return s.match, true
	}
	return s.Service.FirstMatch(m, p)
}

type countingObserver struct {
	mu      sync.Mutex
	matched []string
	failed  []string
}

func (o *countingObserver) RuleMatched(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.matched = append(o.matched, id)
}

func (o *countingObserver) AnnotationFailed(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, id)
}

func TestSuggest_OutOfBoundsSkipsOnlyThatRule(t *testing.T) {
	svc := molecule.NewService()
	lib := rules.NewLibrary(svc)
	lib.MustRegister(ir.ReactionRule{ID: "broken_rule", ReactantPattern: "C~C", ReagentPattern: "BrBr", ArrowType: ir.ArrowPiAttack})
	lib.MustRegister(ir.ReactionRule{ID: "alkene_bromination", ReactantPattern: "C=C", ReagentPattern: "BrBr", ArrowType: ir.ArrowPiAttack})

	var logs bytes.Buffer
	obs := &countingObserver{}
	e, err := New(lib, skewedService{Service: svc, pattern: "C~C", match: []int{0, 42}},
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithObserver(obs),
	)
	require.NoError(t, err)

	res, err := e.Suggest("C=CC", "BrBr")
	require.NoError(t, err)

	assert.Equal(t, []ir.ArrowAnnotation{{StartAtom: 0, EndAtom: 1, Type: ir.ArrowPiAttack}}, res.Arrows)
	assert.Equal(t, string(ErrCodeOutOfBounds), res.Trace[0].Skipped)
	assert.False(t, res.Trace[0].Annotated)
	assert.True(t, res.Trace[1].Annotated)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "rule_id=broken_rule")
	assert.Equal(t, []string{"broken_rule", "alkene_bromination"}, obs.matched)
	assert.Equal(t, []string{"broken_rule"}, obs.failed)

	_, err = Annotate([]int{0, 42}, 3, ir.ArrowPiAttack)
	assert.True(t, IsAnnotationError(err))
	assert.False(t, IsAnnotationError(&ParseFailure{}))
}

func TestNew_FreezesLibrary(t *testing.T) {
	svc := molecule.NewService()
	lib, err := rules.Default(svc)
	require.NoError(t, err)

	_, err = New(lib, svc)
	require.NoError(t, err)

	assert.True(t, lib.Frozen())
	err = lib.Register(ir.ReactionRule{ID: "late_rule", ReactantPattern: "C#C", ReagentPattern: "BrBr", ArrowType: ir.ArrowPiAttack})
	assert.ErrorIs(t, err, rules.ErrFrozen)
}

func TestNew_RejectsNilDependencies(t *testing.T) {
	svc := molecule.NewService()
	_, err := New(nil, svc)
	assert.Error(t, err)

	_, err = New(rules.NewLibrary(svc), nil)
	assert.Error(t, err)
}

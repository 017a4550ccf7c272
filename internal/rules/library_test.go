package rules

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/molecule"
)

func newTestLibrary() *Library {
	return NewLibrary(molecule.NewService())
}

func rule(id, reactant, reagent string) ir.ReactionRule {
	return ir.ReactionRule{
		ID:              id,
		ReactantPattern: reactant,
		ReagentPattern:  reagent,
		ArrowType:       ir.ArrowPiAttack,
	}
}

func TestRegister_AssignsIncreasingPriority(t *testing.T) {
	lib := newTestLibrary()

	r := rule("alkene_bromination", "C=C", "BrBr")
	r.Priority = 99 // ignored
	require.NoError(t, lib.Register(r))
	require.NoError(t, lib.Register(rule("alkyne_bromination", "C#C", "BrBr")))
	require.NoError(t, lib.Register(rule("alkene_chlorination", "C=C", "ClCl")))

	got := lib.Rules()
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, i, r.Priority)
	}
	assert.Equal(t, "alkene_bromination", got[0].ID)
	assert.Equal(t, "alkene_chlorination", got[2].ID)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name  string
		rule  ir.ReactionRule
		code  RegistrationErrorCode
		field string
	}{
		{"empty id", rule("", "C=C", "BrBr"), ErrCodeEmptyID, "id"},
		{"duplicate id", rule("alkene_bromination", "C#C", "BrBr"), ErrCodeDuplicateID, "id"},
		{"bad reactant", rule("bad_reactant", "C(=C", "BrBr"), ErrCodeBadPattern, "reactant"},
		{"bad reagent", rule("bad_reagent", "C=C", "[Br"), ErrCodeBadPattern, "reagent"},
		{"single atom reactant", rule("tiny", "C", "BrBr"), ErrCodeReactantTooSmall, "reactant"},
		{"unknown arrow", ir.ReactionRule{ID: "odd", ReactantPattern: "C=C", ReagentPattern: "BrBr", ArrowType: "radical"}, ErrCodeUnknownArrow, "arrow"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lib := newTestLibrary()
			lib.MustRegister(rule("alkene_bromination", "C=C", "BrBr"))

			err := lib.Register(tc.rule)
			require.Error(t, err)

			var re *RegistrationError
			require.True(t, errors.As(err, &re), "expected *RegistrationError, got %T", err)
			assert.Equal(t, tc.code, re.Code)
			assert.Equal(t, tc.field, re.Field)
			assert.True(t, IsRegistrationError(err))

			assert.Equal(t, 1, lib.Len(), "refused rule must not be added")
		})
	}
}

func TestRegister_BadPatternWrapsParseError(t *testing.T) {
	lib := newTestLibrary()
	err := lib.Register(rule("bad", "C(=C", "BrBr"))
	require.Error(t, err)
	assert.True(t, molecule.IsParseError(err))
}

func TestMustRegister_Panics(t *testing.T) {
	lib := newTestLibrary()
	assert.Panics(t, func() { lib.MustRegister(rule("", "C=C", "BrBr")) })
}

func TestFreeze_RejectsRegistration(t *testing.T) {
	lib := newTestLibrary()
	lib.MustRegister(rule("alkene_bromination", "C=C", "BrBr"))
	require.NoError(t, lib.Freeze())
	require.NoError(t, lib.Freeze(), "second freeze is a no-op")

	assert.True(t, lib.Frozen())
	err := lib.Register(rule("alkyne_bromination", "C#C", "BrBr"))
	assert.ErrorIs(t, err, ErrFrozen)
	assert.Equal(t, 1, lib.Len())
}

func TestCompiled_RequiresFreeze(t *testing.T) {
	lib := newTestLibrary()
	lib.MustRegister(rule("alkene_bromination", "C=C", "BrBr"))
	assert.Panics(t, func() { lib.Compiled() })

	require.NoError(t, lib.Freeze())
	compiled := lib.Compiled()
	require.Len(t, compiled, 1)
	assert.Equal(t, 2, compiled[0].Reactant.NumAtoms())
	assert.Equal(t, "BrBr", compiled[0].Reagent.Text())
}

func TestRules_ReturnsCopy(t *testing.T) {
	lib := newTestLibrary()
	lib.MustRegister(rule("alkene_bromination", "C=C", "BrBr"))

	got := lib.Rules()
	got[0].ID = "mutated"

	assert.Equal(t, "alkene_bromination", lib.Rules()[0].ID)
}

func TestHash_StableAndOrderSensitive(t *testing.T) {
	a := newTestLibrary()
	a.MustRegister(rule("alkene_bromination", "C=C", "BrBr"))
	a.MustRegister(rule("alkyne_bromination", "C#C", "BrBr"))

	b := newTestLibrary()
	b.MustRegister(rule("alkyne_bromination", "C#C", "BrBr"))
	b.MustRegister(rule("alkene_bromination", "C=C", "BrBr"))

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)

	require.NoError(t, a.Freeze())
	frozen, err := a.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, frozen)
}

func TestFrozenLibrary_ConcurrentReads(t *testing.T) {
	lib := newTestLibrary()
	lib.MustRegister(rule("alkene_bromination", "C=C", "BrBr"))
	require.NoError(t, lib.Freeze())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = lib.Rules()
				_ = lib.Compiled()
				_, _ = lib.Hash()
			}
		}()
	}
	wg.Wait()
}

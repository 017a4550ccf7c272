package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFieldNaming(t *testing.T) {
	ev := Evaluation{
		ID:          "abc",
		Seq:         42,
		RequestID:   "req-1",
		Reactant:    "C=CC",
		Reagent:     "BrBr",
		LibraryHash: "lib",
		ResultHash:  "res",
		Arrows:      []ArrowAnnotation{{StartAtom: 0, EndAtom: 1, Type: ArrowPiAttack}},
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	// Verify snake_case JSON tags
	for _, key := range []string{`"request_id"`, `"library_hash"`, `"result_hash"`, `"start_atom"`, `"end_atom"`, `"engine_version"`, `"ir_version"`} {
		assert.Contains(t, string(data), key)
	}

	// Verify NOT camelCase
	assert.NotContains(t, string(data), `"requestId"`)
	assert.NotContains(t, string(data), `"startAtom"`)

	// parse_error is omitted when empty
	assert.NotContains(t, string(data), `"parse_error"`)
}

func TestReactionRuleJSON(t *testing.T) {
	rule := ReactionRule{
		ID:              "alkene_bromination",
		ReactantPattern: "C=C",
		ReagentPattern:  "BrBr",
		ArrowType:       ArrowPiAttack,
		Priority:        0,
	}
	data, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"alkene_bromination","reactant_pattern":"C=C","reagent_pattern":"BrBr","arrow_type":"pi_attack","priority":0}`,
		string(data))
}

func TestArrowType_Valid(t *testing.T) {
	tests := []struct {
		arrow ArrowType
		want  bool
	}{
		{ArrowPiAttack, true},
		{ArrowLonePairAttack, true},
		{ArrowSigmaCleavage, true},
		{ArrowProtonTransfer, true},
		{"", false},
		{"PI_ATTACK", false},
		{"radical", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.arrow), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.arrow.Valid())
		})
	}
}

func TestEvaluationRoundTrip(t *testing.T) {
	original := Evaluation{
		ID:            "id",
		Seq:           7,
		RequestID:     "req",
		Reactant:      "C=CC",
		Reagent:       "Br(",
		LibraryHash:   "lib",
		ResultHash:    "res",
		Arrows:        []ArrowAnnotation{},
		ParseError:    "reagent: unclosed branch",
		EngineVersion: EngineVersion,
		IRVersion:     IRVersion,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Evaluation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

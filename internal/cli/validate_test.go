package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duplicateBuiltinRule = `rules: [
	{
		id:       "alkene_bromination"
		reactant: "C=C"
		reagent:  "BrBr"
		arrow:    "pi_attack"
	},
]
`

func TestValidate_AllValid(t *testing.T) {
	dir := writeRulesDir(t, map[string]string{"allylic.cue": allylicRules})
	cmd := NewValidateCommand(&RootOptions{Format: "text"})

	out, err := execute(t, cmd, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "All rule files valid (1 file(s), 2 rule(s))")
}

func TestValidate_AllValidJSON(t *testing.T) {
	dir := writeRulesDir(t, map[string]string{"allylic.cue": allylicRules})
	cmd := NewValidateCommand(&RootOptions{Format: "json"})

	out, err := execute(t, cmd, dir)
	require.NoError(t, err)

	var data ValidationResult
	resp := decodeResponse(t, out, &data)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, data.Valid)
	assert.Equal(t, 1, data.Files)
	assert.Equal(t, 2, data.Rules)
	assert.Empty(t, data.Errors)
}

func TestValidate_DuplicateOfBuiltin(t *testing.T) {
	dir := writeRulesDir(t, map[string]string{"dup.cue": duplicateBuiltinRule})
	cmd := NewValidateCommand(&RootOptions{Format: "text"})

	out, err := execute(t, cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, filepath.Join(dir, "dup.cue"))
	assert.Contains(t, out, "DUPLICATE_ID")
}

func TestValidate_CollectsErrorsAcrossFiles(t *testing.T) {
	dir := writeRulesDir(t, map[string]string{
		"broken.cue": "rules: [",
		"dup.cue":    duplicateBuiltinRule,
		"ok.cue":     allylicRules,
	})
	cmd := NewValidateCommand(&RootOptions{Format: "json"})

	out, err := execute(t, cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var data ValidationResult
	resp := decodeResponse(t, out, &data)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, data.Valid)
	assert.Equal(t, 3, data.Files)
	assert.Equal(t, 2, data.Rules)

	files := map[string]bool{}
	for _, e := range data.Errors {
		files[filepath.Base(e.File)] = true
	}
	assert.Equal(t, map[string]bool{"broken.cue": true, "dup.cue": true}, files)
}

func TestValidate_MissingDirectory(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})

	out, err := execute(t, cmd, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestValidate_NoRuleFiles(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})

	out, err := execute(t, cmd, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no CUE files found")
}

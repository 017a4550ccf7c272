package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/arrowpush/internal/compiler"
)

//go:embed builtin.cue
var builtinSource []byte

// BuiltinFile is the name reported in positions for built-in rules.
const BuiltinFile = "builtin.cue"

// LoadError reports a rule file that could not be loaded.
type LoadError struct {
	// File is the path of the offending file.
	File string

	// Validation holds schema errors, if any were found.
	Validation []compiler.ValidationError

	// Err is the compile or registration error, if any.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if len(e.Validation) > 0 {
		msgs := make([]string, len(e.Validation))
		for i, v := range e.Validation {
			msgs[i] = v.Error()
		}
		return fmt.Sprintf("%s: %s", e.File, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Default returns a library holding the built-in rules. The library is not
// frozen, so rule files can still be loaded into it.
func Default(c PatternCompiler) (*Library, error) {
	lib := NewLibrary(c)
	if err := LoadSource(lib, BuiltinFile, builtinSource); err != nil {
		return nil, err
	}
	return lib, nil
}

// LoadSource compiles one CUE rule document and registers its rules in
// list order. filename is used for error positions.
func LoadSource(lib *Library, filename string, src []byte) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))

	defs, err := compiler.CompileRules(v)
	if err != nil {
		return &LoadError{File: filename, Err: err}
	}
	if verrs := compiler.Validate(defs); len(verrs) > 0 {
		return &LoadError{File: filename, Validation: verrs}
	}

	for _, def := range defs {
		if err := lib.Register(def); err != nil {
			return &LoadError{File: filename, Err: err}
		}
	}
	return nil
}

// RuleFiles returns the *.cue files directly inside dir, in lexical order.
func RuleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rules directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".cue" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir registers the rules of every *.cue file in dir. Files are loaded
// in lexical filename order and compiled independently, so a rule's
// priority follows its file name and then its list position. The first
// error stops loading.
func LoadDir(dir string, lib *Library) (int, error) {
	files, err := RuleFiles(dir)
	if err != nil {
		return 0, err
	}

	before := lib.Len()
	for _, path := range files {
		if err := LoadFile(lib, path); err != nil {
			return lib.Len() - before, err
		}
	}
	return lib.Len() - before, nil
}

// LoadFile registers the rules of a single CUE file.
func LoadFile(lib *Library, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rule file: %w", err)
	}
	return LoadSource(lib, path, src)
}

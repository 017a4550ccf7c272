package harness

import (
	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/ir"
)

// TraceEvent records one evaluated case.
type TraceEvent struct {
	Seq      int64                `json:"seq"`
	Case     string               `json:"case"`
	Reactant string               `json:"reactant"`
	Reagent  string               `json:"reagent"`
	Arrows   []ir.ArrowAnnotation `json:"arrows"`
	Rules    []engine.RuleTrace   `json:"rules"`

	// Invalid is the side that failed to parse, if any.
	Invalid engine.Side `json:"invalid,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per case, in case order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// LibraryHash identifies the rule set the scenario ran against.
	LibraryHash string `json:"library_hash"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a case event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}


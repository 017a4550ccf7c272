package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/arrowpush/internal/ir"
)

// TraceSnapshot captures the trace of a scenario run.
// It excludes the library hash and audit IDs, which change whenever a rule
// or the engine version changes, so golden files stay reviewable by hand.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RequestID    string       `json:"request_id,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. ir.MarshalCanonical only handles IR types and
// primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		arrows := ev.Arrows
		if arrows == nil {
			arrows = []ir.ArrowAnnotation{}
		}

		rulesList := make([]any, len(ev.Rules))
		for j, rt := range ev.Rules {
			m := map[string]any{
				"rule_id":          rt.RuleID,
				"priority":         rt.Priority,
				"reactant_matched": rt.ReactantMatched,
				"reagent_matched":  rt.ReagentMatched,
				"annotated":        rt.Annotated,
			}
			if len(rt.Match) > 0 {
				match := make([]any, len(rt.Match))
				for k, idx := range rt.Match {
					match[k] = idx
				}
				m["match"] = match
			}
			if rt.Skipped != "" {
				m["skipped"] = rt.Skipped
			}
			rulesList[j] = m
		}

		evMap := map[string]any{
			"seq":      ev.Seq,
			"case":     ev.Case,
			"reactant": ev.Reactant,
			"reagent":  ev.Reagent,
			"arrows":   arrows,
			"rules":    rulesList,
		}
		if ev.Invalid != "" {
			evMap["invalid"] = string(ev.Invalid)
		}
		traceList[i] = evMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.RequestID != "" {
		result["request_id"] = s.RequestID
	}
	return result
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(scenarioName, requestID string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RequestID:    requestID,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	traceJSON, err := MarshalTrace(scenario.Name, scenario.RequestID, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)
	return result, nil
}

// AssertGolden compares an already computed result's trace against a
// golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, "", result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

// Package harness runs arrow-suggestion scenarios as executable contract
// tests.
//
// A scenario names a rule set, a list of reactant/reagent cases with the
// arrows each case must produce, and assertions over the resulting trace
// and audit log. Every case goes through the real engine and is recorded
// in a fresh in-memory audit store.
//
// # Scenario Format
//
//	name: alkene_bromination
//	description: "Built-in rule fires on propene"
//	rules:                      # CUE rule files, relative to the scenario
//	  - rules/extra.cue
//	no_builtin: false           # skip the built-in library
//	request_id: scenario-0001   # recorded on every audit row
//	cases:
//	  - name: propene
//	    reactant: C=CC
//	    reagent: BrBr
//	    expect:
//	      arrows:
//	        - {start: 0, end: 1, type: pi_attack}
//	  - name: bad_reagent
//	    reactant: C=CC
//	    reagent: "Br("
//	    expect:
//	      invalid: reagent
//	assertions:
//	  - type: rule_fired
//	    rule: alkene_bromination
//	  - type: final_state
//	    table: evaluations
//	    where: { reactant: C=CC, reagent: BrBr }
//	    expect: { seq: 1 }
//
// # Assertion Types
//
//   - rule_fired: a rule produced an arrow (optionally in one case)
//   - rule_order: rules produced arrows in the given order within a case
//   - arrow_count: total arrows (optionally in one case) equal count
//   - final_state: one audit row matches where and carries expect
//
// # Deterministic Testing
//
// Scenarios run with a deterministic logical clock and a fixed request
// ID, so repeated runs produce identical audit rows and traces. Traces
// are compared against golden files in canonical JSON.
package harness

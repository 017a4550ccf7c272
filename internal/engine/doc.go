// Package engine evaluates reaction rules against a reactant/reagent pair
// and produces arrow annotations.
//
// EVALUATION:
//
// 1. Parse reactant and reagent (either failing yields no arrows)
// 2. For every rule, in registration order:
//   - test the reactant pattern against the reactant
//   - test the reagent pattern against the reagent (independently)
//   - if both match, annotate the reactant's first match
//
// 3. Return the annotations in rule order
//
// There is no short-circuit: every rule is tested, and several rules may
// contribute arrows to one result. A rule whose match cannot be annotated is
// logged and skipped without affecting the others.
//
// CRITICAL PATTERNS:
//
// Deterministic Evaluation:
// Rules are visited in registration order and the molecule service returns
// the first match in a fixed search order. No maps are iterated and no
// randomness is used, so equal inputs always give equal outputs.
//
// Read-Only Core:
// The engine holds a frozen rule library and carries no state between calls.
// Evaluate and Suggest are safe for concurrent use without locks.
package engine

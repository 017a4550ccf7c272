package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvaluation = "arrowpush/evaluation/v1"
	DomainLibrary    = "arrowpush/library/v1"
	DomainResult     = "arrowpush/result/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// LibraryHash computes the content hash of an ordered rule set.
// Reordering rules changes the hash, since order is part of the semantics.
func LibraryHash(rules []ReactionRule) (string, error) {
	arr := make([]any, len(rules))
	for i, r := range rules {
		arr[i] = r.canonical()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("LibraryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLibrary, canonical), nil
}

// ResultHash computes the content hash of an annotation sequence.
// A nil and an empty sequence hash identically.
func ResultHash(arrows []ArrowAnnotation) (string, error) {
	if arrows == nil {
		arrows = []ArrowAnnotation{}
	}
	canonical, err := MarshalCanonical(arrows)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// EvaluationID computes the content-addressed ID of an audit record.
// The request ID is excluded: it names who asked, not what was evaluated.
func EvaluationID(reactant, reagent, libraryHash string, seq int64) (string, error) {
	obj := map[string]any{
		"reactant":     reactant,
		"reagent":      reagent,
		"library_hash": libraryHash,
		"seq":          seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EvaluationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvaluation, canonical), nil
}

// MustEvaluationID is like EvaluationID but panics on error.
// Use only in tests or with values known to be valid.
func MustEvaluationID(reactant, reagent, libraryHash string, seq int64) string {
	id, err := EvaluationID(reactant, reagent, libraryHash, seq)
	if err != nil {
		panic(err)
	}
	return id
}

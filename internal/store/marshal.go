package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/arrowpush/internal/ir"
)

// marshalArrows converts arrows to canonical JSON TEXT for storage.
// A nil slice is stored as "[]".
func marshalArrows(arrows []ir.ArrowAnnotation) (string, error) {
	if arrows == nil {
		arrows = []ir.ArrowAnnotation{}
	}
	data, err := ir.MarshalCanonical(arrows)
	if err != nil {
		return "", fmt.Errorf("marshal arrows: %w", err)
	}
	return string(data), nil
}

// unmarshalArrows parses stored arrows. Always returns a non-nil slice.
func unmarshalArrows(data string) ([]ir.ArrowAnnotation, error) {
	arrows := []ir.ArrowAnnotation{}
	if data == "" || data == "[]" {
		return arrows, nil
	}
	if err := json.Unmarshal([]byte(data), &arrows); err != nil {
		return nil, fmt.Errorf("unmarshal arrows: %w", err)
	}
	return arrows, nil
}

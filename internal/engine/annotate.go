package engine

import (
	"fmt"

	"github.com/roach88/arrowpush/internal/ir"
)

// Annotate turns the first two atoms of a reactant match into an arrow.
//
// The first pattern atom is the arrow's start and the second its end. Both
// must index an atom of a reactant with atomCount atoms, and they must
// differ. The match slice is not retained.
func Annotate(match []int, atomCount int, t ir.ArrowType) (ir.ArrowAnnotation, error) {
	if len(match) < 2 {
		return ir.ArrowAnnotation{}, &AnnotationError{
			Code:      ErrCodeShortMatch,
			Message:   fmt.Sprintf("match has %d atom(s), need at least 2", len(match)),
			Match:     append([]int(nil), match...),
			AtomCount: atomCount,
		}
	}

	start, end := match[0], match[1]
	for _, idx := range []int{start, end} {
		if idx < 0 || idx >= atomCount {
			return ir.ArrowAnnotation{}, &AnnotationError{
				Code:      ErrCodeOutOfBounds,
				Message:   fmt.Sprintf("atom index %d outside [0, %d)", idx, atomCount),
				Match:     append([]int(nil), match...),
				AtomCount: atomCount,
			}
		}
	}
	if start == end {
		return ir.ArrowAnnotation{}, &AnnotationError{
			Code:      ErrCodeSelfArrow,
			Message:   fmt.Sprintf("arrow starts and ends at atom %d", start),
			Match:     append([]int(nil), match...),
			AtomCount: atomCount,
		}
	}

	return ir.ArrowAnnotation{StartAtom: start, EndAtom: end, Type: t}, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/roach88/arrowpush/internal/ir"
)

// WriteEvaluation inserts an evaluation record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., NOT NULL) will still return errors.
//
// Arrows are serialized to canonical JSON per RFC 8785 so that stored bytes
// are stable across runs.
func (s *Store) WriteEvaluation(ctx context.Context, ev ir.Evaluation) error {
	arrowsJSON, err := marshalArrows(ev.Arrows)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, seq, request_id, reactant, reagent, library_hash, result_hash, arrows, parse_error, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.Seq,
		ev.RequestID,
		ev.Reactant,
		ev.Reagent,
		ev.LibraryHash,
		ev.ResultHash,
		arrowsJSON,
		ev.ParseError,
		ev.EngineVersion,
		ev.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}

	return nil
}

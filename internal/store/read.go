package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/arrowpush/internal/ir"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: record not found")

const evaluationColumns = `id, seq, request_id, reactant, reagent, library_hash, result_hash, arrows, parse_error, engine_version, ir_version`

// ReadEvaluations returns every evaluation in replay order.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ReadEvaluations(ctx context.Context) ([]ir.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	evals := []ir.Evaluation{}
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}

	return evals, nil
}

// ReadEvaluation returns the evaluation with the given id, or ErrNotFound.
func (s *Store) ReadEvaluation(ctx context.Context, id string) (ir.Evaluation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE id = ?
	`, id)

	ev, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Evaluation{}, ErrNotFound
	}
	if err != nil {
		return ir.Evaluation{}, err
	}
	return ev, nil
}

// LastSeq returns the highest recorded seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM evaluations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

// CountByLibrary returns how many evaluations were recorded under each
// library hash, ordered by hash.
func (s *Store) CountByLibrary(ctx context.Context) ([]LibraryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT library_hash, COUNT(*)
		FROM evaluations
		GROUP BY library_hash
		ORDER BY library_hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count by library: %w", err)
	}
	defer rows.Close()

	counts := []LibraryCount{}
	for rows.Next() {
		var c LibraryCount
		if err := rows.Scan(&c.LibraryHash, &c.Count); err != nil {
			return nil, fmt.Errorf("scan library count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate library counts: %w", err)
	}
	return counts, nil
}

// LibraryCount is one row of CountByLibrary.
type LibraryCount struct {
	LibraryHash string `json:"library_hash"`
	Count       int    `json:"count"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (ir.Evaluation, error) {
	var (
		ev         ir.Evaluation
		arrowsJSON string
	)
	err := row.Scan(
		&ev.ID,
		&ev.Seq,
		&ev.RequestID,
		&ev.Reactant,
		&ev.Reagent,
		&ev.LibraryHash,
		&ev.ResultHash,
		&arrowsJSON,
		&ev.ParseError,
		&ev.EngineVersion,
		&ev.IRVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ev, err
		}
		return ev, fmt.Errorf("scan evaluation: %w", err)
	}

	ev.Arrows, err = unmarshalArrows(arrowsJSON)
	if err != nil {
		return ev, fmt.Errorf("scan evaluation %s: %w", ev.ID, err)
	}
	return ev, nil
}

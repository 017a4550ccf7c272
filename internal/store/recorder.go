package store

import (
	"context"
	"fmt"

	"github.com/roach88/arrowpush/internal/ir"
)

// Entry is what a caller knows about one evaluation before it is recorded.
type Entry struct {
	RequestID   string
	Reactant    string
	Reagent     string
	LibraryHash string
	Arrows      []ir.ArrowAnnotation
	ParseError  string
}

// Sequencer issues strictly increasing seq values. Implemented by *Clock.
type Sequencer interface {
	Next() int64
}

// Recorder stamps entries with seq and content-addressed IDs and appends
// them to a Store. Safe for concurrent use when its Sequencer is.
type Recorder struct {
	store *Store
	clock Sequencer
}

// NewRecorder creates a recorder whose clock resumes after the last seq
// already in s.
func NewRecorder(ctx context.Context, s *Store) (*Recorder, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}
	return &Recorder{store: s, clock: NewClockAt(last)}, nil
}

// NewRecorderWithSequencer creates a recorder driven by seq. The caller is
// responsible for seq never repeating a value already in s.
func NewRecorderWithSequencer(s *Store, seq Sequencer) *Recorder {
	return &Recorder{store: s, clock: seq}
}

// Record appends e to the log and returns the stored evaluation.
func (r *Recorder) Record(ctx context.Context, e Entry) (ir.Evaluation, error) {
	seq := r.clock.Next()

	id, err := ir.EvaluationID(e.Reactant, e.Reagent, e.LibraryHash, seq)
	if err != nil {
		return ir.Evaluation{}, fmt.Errorf("record evaluation: %w", err)
	}
	resultHash, err := ir.ResultHash(e.Arrows)
	if err != nil {
		return ir.Evaluation{}, fmt.Errorf("record evaluation: %w", err)
	}

	arrows := e.Arrows
	if arrows == nil {
		arrows = []ir.ArrowAnnotation{}
	}

	ev := ir.Evaluation{
		ID:            id,
		Seq:           seq,
		RequestID:     e.RequestID,
		Reactant:      e.Reactant,
		Reagent:       e.Reagent,
		LibraryHash:   e.LibraryHash,
		ResultHash:    resultHash,
		Arrows:        arrows,
		ParseError:    e.ParseError,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	if err := r.store.WriteEvaluation(ctx, ev); err != nil {
		return ir.Evaluation{}, err
	}
	return ev, nil
}

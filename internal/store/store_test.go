package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/arrowpush/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEvaluation(seq int64, reactant string, arrows []ir.ArrowAnnotation) ir.Evaluation {
	resultHash, _ := ir.ResultHash(arrows)
	return ir.Evaluation{
		ID:            ir.MustEvaluationID(reactant, "BrBr", "lib-hash", seq),
		Seq:           seq,
		RequestID:     "req-1",
		Reactant:      reactant,
		Reagent:       "BrBr",
		LibraryHash:   "lib-hash",
		ResultHash:    resultHash,
		Arrows:        arrows,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.WriteEvaluation(context.Background(), testEvaluation(1, "C=CC", nil)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	evals, err := s2.ReadEvaluations(context.Background())
	require.NoError(t, err)
	assert.Len(t, evals, 1)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_CreatesLibraryIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_evaluations_library'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_evaluations_library", name)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNewerSchema)
}

func TestWriteEvaluation_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := testEvaluation(1, "C=CC", []ir.ArrowAnnotation{{StartAtom: 0, EndAtom: 1, Type: ir.ArrowPiAttack}})
	require.NoError(t, s.WriteEvaluation(ctx, ev))

	got, err := s.ReadEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestWriteEvaluation_NilArrowsStoredAsEmpty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := testEvaluation(1, "CCC", nil)
	require.NoError(t, s.WriteEvaluation(ctx, ev))

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT arrows FROM evaluations WHERE id = ?", ev.ID).Scan(&raw))
	assert.Equal(t, "[]", raw)

	got, err := s.ReadEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Arrows)
	assert.Empty(t, got.Arrows)
}

func TestWriteEvaluation_CanonicalArrowsJSON(t *testing.T) {
	s := createTestStore(t)
	ev := testEvaluation(1, "C=CC", []ir.ArrowAnnotation{{StartAtom: 0, EndAtom: 1, Type: ir.ArrowPiAttack}})
	require.NoError(t, s.WriteEvaluation(context.Background(), ev))

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT arrows FROM evaluations").Scan(&raw))
	assert.Equal(t, `[{"end_atom":1,"start_atom":0,"type":"pi_attack"}]`, raw)
}

func TestWriteEvaluation_IdempotentOnID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := testEvaluation(1, "C=CC", nil)
	require.NoError(t, s.WriteEvaluation(ctx, ev))

	dup := ev
	dup.RequestID = "req-2"
	require.NoError(t, s.WriteEvaluation(ctx, dup))

	evals, err := s.ReadEvaluations(ctx)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, "req-1", evals[0].RequestID, "first write wins")
}

func TestReadEvaluations_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, seq := range []int64{3, 1, 2} {
		require.NoError(t, s.WriteEvaluation(ctx, testEvaluation(seq, "C=CC", nil)))
	}

	evals, err := s.ReadEvaluations(ctx)
	require.NoError(t, err)
	require.Len(t, evals, 3)
	for i, ev := range evals {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestReadEvaluations_EmptyIsNonNil(t *testing.T) {
	s := createTestStore(t)

	evals, err := s.ReadEvaluations(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, evals)
	assert.Empty(t, evals)
}

func TestReadEvaluation_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadEvaluation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteEvaluation(ctx, testEvaluation(7, "C=CC", nil)))
	require.NoError(t, s.WriteEvaluation(ctx, testEvaluation(4, "CCC", nil)))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestCountByLibrary(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := testEvaluation(1, "C=CC", nil)
	b := testEvaluation(2, "C=CC", nil)
	b.LibraryHash = "aaa"
	b.ID = ir.MustEvaluationID(b.Reactant, b.Reagent, b.LibraryHash, b.Seq)
	require.NoError(t, s.WriteEvaluation(ctx, a))
	require.NoError(t, s.WriteEvaluation(ctx, b))

	counts, err := s.CountByLibrary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []LibraryCount{
		{LibraryHash: "aaa", Count: 1},
		{LibraryHash: "lib-hash", Count: 1},
	}, counts)
}

func TestRecorder_StampsSeqAndIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec, err := NewRecorder(ctx, s)
	require.NoError(t, err)

	arrows := []ir.ArrowAnnotation{{StartAtom: 0, EndAtom: 1, Type: ir.ArrowPiAttack}}
	ev, err := rec.Record(ctx, Entry{
		RequestID:   "req-1",
		Reactant:    "C=CC",
		Reagent:     "BrBr",
		LibraryHash: "lib-hash",
		Arrows:      arrows,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), ev.Seq)
	assert.Equal(t, ir.MustEvaluationID("C=CC", "BrBr", "lib-hash", 1), ev.ID)
	wantHash, err := ir.ResultHash(arrows)
	require.NoError(t, err)
	assert.Equal(t, wantHash, ev.ResultHash)
	assert.Equal(t, ir.EngineVersion, ev.EngineVersion)

	stored, err := s.ReadEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev, stored)
}

func TestRecorder_ResumesAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	rec1, err := NewRecorder(ctx, s1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := rec1.Record(ctx, Entry{Reactant: "C=CC", Reagent: "BrBr", LibraryHash: "h"})
		require.NoError(t, err)
	}
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	rec2, err := NewRecorder(ctx, s2)
	require.NoError(t, err)

	ev, err := rec2.Record(ctx, Entry{Reactant: "C=CC", Reagent: "BrBr", LibraryHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), ev.Seq, "same inputs get a fresh seq and id")

	evals, err := s2.ReadEvaluations(ctx)
	require.NoError(t, err)
	assert.Len(t, evals, 4)
}

func TestRecorder_ParseErrorRecorded(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec, err := NewRecorder(ctx, s)
	require.NoError(t, err)

	ev, err := rec.Record(ctx, Entry{Reactant: "C(", Reagent: "BrBr", LibraryHash: "h", ParseError: "invalid reactant"})
	require.NoError(t, err)
	assert.NotNil(t, ev.Arrows)

	stored, err := s.ReadEvaluation(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "invalid reactant", stored.ParseError)
}

func TestRecorder_Concurrent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec, err := NewRecorder(ctx, s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := rec.Record(ctx, Entry{Reactant: "C=CC", Reagent: "BrBr", LibraryHash: "h"})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	last, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(80), last)
}

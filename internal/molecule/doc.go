// Package molecule implements the structure-handling collaborator of the
// arrow engine: SMILES parsing into an immutable molecular graph, SMARTS
// query compilation, and deterministic substructure search.
//
// Only the parts of SMILES and SMARTS needed for pattern-existence tests are
// supported. Stereo markers are accepted and ignored.
//
// AROMATICITY:
// Lowercase input is kekulized first and rejected when no Kekule form
// exists. Aromaticity is then perceived on the Kekule graph: a simple ring
// of at most seven atoms is aromatic when every atom is sp2 or carries a
// lone pair and the ring holds 4n+2 pi electrons. Fused systems are not
// combined, so only rings that qualify on their own are marked.
//
// DETERMINISM:
// FirstMatch assigns pattern atoms in pattern order and tries molecule atoms
// in ascending index order. The first complete assignment wins, so the same
// (molecule, pattern) pair always yields the same atom tuple.
//
// All types are immutable after construction and safe for concurrent reads.
package molecule

package molecule

import "sort"

// BondOrder is the order of a bond in a parsed molecule.
type BondOrder int

const (
	BondSingle    BondOrder = 1
	BondDouble    BondOrder = 2
	BondTriple    BondOrder = 3
	BondQuadruple BondOrder = 4
	BondAromatic  BondOrder = 5
)

// String returns the SMILES bond symbol.
func (o BondOrder) String() string {
	switch o {
	case BondSingle:
		return "-"
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondQuadruple:
		return "$"
	case BondAromatic:
		return ":"
	default:
		return "?"
	}
}

// valence returns the contribution of the bond to an atom's valence.
// Aromatic bonds count as one; the extra pi electron is added per atom.
func (o BondOrder) valence() int {
	switch o {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondQuadruple:
		return 4
	default:
		return 1
	}
}

// Atom is a single atom of a parsed molecule.
type Atom struct {
	Symbol    string `json:"symbol"`
	AtomicNum int    `json:"atomic_num"`
	Aromatic  bool   `json:"aromatic,omitempty"`
	Charge    int    `json:"charge,omitempty"`
	Isotope   int    `json:"isotope,omitempty"`
	HCount    int    `json:"h_count"` // implicit plus bracket hydrogens
	Class     int    `json:"class,omitempty"`
	Bracket   bool   `json:"bracket,omitempty"`
}

// Bond connects two atoms by index.
type Bond struct {
	Begin int       `json:"begin"`
	End   int       `json:"end"`
	Order BondOrder `json:"order"`
}

// Other returns the endpoint of b that is not atom.
func (b Bond) Other(atom int) int {
	if b.Begin == atom {
		return b.End
	}
	return b.Begin
}

type neighbor struct {
	atom int
	bond int
}

// Molecule is an immutable molecular graph.
// Atom indices are 0-based in the order atoms appear in the input text.
type Molecule struct {
	text     string
	atoms    []Atom
	bonds    []Bond
	adj      [][]neighbor // sorted by neighbor atom index
	ringBond []bool
	ringAtom []bool
}

// newMolecule wraps atoms and bonds in a Molecule and derives the adjacency
// lists and ring membership. The parser still adjusts bond orders and
// aromatic flags in place before returning it.
func newMolecule(text string, atoms []Atom, bonds []Bond) *Molecule {
	m := &Molecule{
		text:  text,
		atoms: atoms,
		bonds: bonds,
		adj:   make([][]neighbor, len(atoms)),
	}
	for i, b := range bonds {
		m.adj[b.Begin] = append(m.adj[b.Begin], neighbor{atom: b.End, bond: i})
		m.adj[b.End] = append(m.adj[b.End], neighbor{atom: b.Begin, bond: i})
	}
	for _, nbs := range m.adj {
		sort.Slice(nbs, func(i, j int) bool { return nbs[i].atom < nbs[j].atom })
	}
	m.ringBond, m.ringAtom = ringMembership(len(atoms), bonds, m.adj)
	return m
}

// Text returns the structure text the molecule was parsed from.
func (m *Molecule) Text() string { return m.text }

// NumAtoms returns the number of atoms.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// Atom returns atom i. Panics if i is out of range.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Bond returns bond i. Panics if i is out of range.
func (m *Molecule) Bond(i int) Bond { return m.bonds[i] }

// Degree returns the number of explicit neighbors of atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// Neighbors returns the neighbor atom indices of atom i in ascending order.
func (m *Molecule) Neighbors(i int) []int {
	out := make([]int, len(m.adj[i]))
	for k, nb := range m.adj[i] {
		out[k] = nb.atom
	}
	return out
}

// BondBetween returns the index of the bond joining atoms a and b, or -1.
func (m *Molecule) BondBetween(a, b int) int {
	for _, nb := range m.adj[a] {
		if nb.atom == b {
			return nb.bond
		}
	}
	return -1
}

// InRing reports whether atom i belongs to at least one ring.
func (m *Molecule) InRing(i int) bool { return m.ringAtom[i] }

// BondInRing reports whether bond i belongs to at least one ring.
func (m *Molecule) BondInRing(i int) bool { return m.ringBond[i] }

// Components returns the connected components as ascending atom index lists,
// ordered by their lowest atom index.
func (m *Molecule) Components() [][]int {
	seen := make([]bool, len(m.atoms))
	var comps [][]int
	for start := range m.atoms {
		if seen[start] {
			continue
		}
		var comp []int
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			a := queue[0]
			queue = queue[1:]
			comp = append(comp, a)
			for _, nb := range m.adj[a] {
				if !seen[nb.atom] {
					seen[nb.atom] = true
					queue = append(queue, nb.atom)
				}
			}
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	return comps
}

// ringMembership marks bonds that are not bridges, and their atoms, as ring
// members. Uses Tarjan's bridge-finding over the undirected graph.
func ringMembership(n int, bonds []Bond, adj [][]neighbor) ([]bool, []bool) {
	ringBond := make([]bool, len(bonds))
	ringAtom := make([]bool, n)
	for i := range ringBond {
		ringBond[i] = true
	}

	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	timer := 0

	var visit func(u, parentBond int)
	visit = func(u, parentBond int) {
		disc[u] = timer
		low[u] = timer
		timer++
		for _, nb := range adj[u] {
			if nb.bond == parentBond {
				continue
			}
			if disc[nb.atom] == -1 {
				visit(nb.atom, nb.bond)
				low[u] = min(low[u], low[nb.atom])
				if low[nb.atom] > disc[u] {
					ringBond[nb.bond] = false
				}
			} else {
				low[u] = min(low[u], disc[nb.atom])
			}
		}
	}
	for u := 0; u < n; u++ {
		if disc[u] == -1 {
			visit(u, -1)
		}
	}

	for i, b := range bonds {
		if ringBond[i] {
			ringAtom[b.Begin] = true
			ringAtom[b.End] = true
		}
	}
	return ringBond, ringAtom
}

package molecule

// maxAromaticRing is the largest simple ring tested for aromaticity.
const maxAromaticRing = 7

// aromaticValence is the neutral valence used to decide whether an aromatic
// atom still owes a double bond to its ring.
var aromaticValence = map[int]int{
	5:  3, // B
	6:  4, // C
	7:  3, // N
	8:  2, // O
	15: 3, // P
	16: 2, // S
	33: 3, // As
	34: 2, // Se
	52: 2, // Te
}

// kekulize replaces the aromatic bonds written in the input with an
// alternating single/double assignment and clears the aromatic atom flags.
// Every aromatic atom with a free valence must receive exactly one double
// bond; when no such assignment exists the input is rejected.
func kekulize(s *scanner, m *Molecule, atomPos []int) error {
	k := &kekulizer{
		m:    m,
		need: make([]bool, len(m.atoms)),
		mate: make([]int, len(m.atoms)),
	}
	first := -1
	for i := range m.atoms {
		k.mate[i] = -1
		if m.atoms[i].Aromatic && k.needsDouble(i) {
			k.need[i] = true
			if first < 0 {
				first = i
			}
		}
	}
	if first >= 0 && !k.solve() {
		return s.errorf(atomPos[first], "cannot kekulize aromatic system at atom %d (%s)", first, m.atoms[first].Symbol)
	}

	for i := range m.bonds {
		b := &m.bonds[i]
		if b.Order != BondAromatic {
			continue
		}
		b.Order = BondSingle
		if k.mate[b.Begin] == b.End {
			b.Order = BondDouble
		}
	}
	for i := range m.atoms {
		m.atoms[i].Aromatic = false
	}
	return nil
}

type kekulizer struct {
	m    *Molecule
	need []bool
	mate []int
}

// needsDouble reports whether aromatic atom i has a valence left for a
// ring double bond once its written bonds and hydrogens are counted.
func (k *kekulizer) needsDouble(i int) bool {
	a := k.m.atoms[i]
	sum := 0
	for _, nb := range k.m.adj[i] {
		sum += k.m.bonds[nb.bond].Order.valence()
	}

	if !a.Bracket {
		valences, ok := organicValences[a.AtomicNum]
		return ok && sum+1 <= valences[0]
	}

	v, ok := aromaticValence[a.AtomicNum]
	if !ok {
		return false
	}
	switch a.AtomicNum {
	case 5:
		v -= a.Charge
	case 6:
		if a.Charge < 0 {
			v += a.Charge
		} else {
			v -= a.Charge
		}
	default:
		v += a.Charge
	}
	return v-sum-a.HCount >= 1
}

// solve extends the current pairing until every needy atom has a mate.
// The most constrained atom is tried first, lowest index on ties, and
// partners are tried in ascending index order.
func (k *kekulizer) solve() bool {
	best, bestFree := -1, 0
	for i, needy := range k.need {
		if !needy || k.mate[i] >= 0 {
			continue
		}
		free := 0
		for _, nb := range k.m.adj[i] {
			if k.free(nb) {
				free++
			}
		}
		if free == 0 {
			return false
		}
		if best < 0 || free < bestFree {
			best, bestFree = i, free
		}
	}
	if best < 0 {
		return true
	}

	for _, nb := range k.m.adj[best] {
		if !k.free(nb) {
			continue
		}
		k.mate[best], k.mate[nb.atom] = nb.atom, best
		if k.solve() {
			return true
		}
		k.mate[best], k.mate[nb.atom] = -1, -1
	}
	return false
}

func (k *kekulizer) free(nb neighbor) bool {
	return k.need[nb.atom] && k.mate[nb.atom] < 0 && k.m.bonds[nb.bond].Order == BondAromatic
}

// perceiveAromaticity marks every simple ring of up to maxAromaticRing atoms
// whose pi electron count satisfies the Hueckel 4n+2 rule. Atoms and ring
// bonds of such rings become aromatic. Electron counts are taken from the
// Kekule structure before any bond is changed, so the outcome does not
// depend on ring enumeration order. Fused systems are only aromatic where
// an individual ring qualifies.
func perceiveAromaticity(m *Molecule) {
	electrons := make([]int, len(m.atoms))
	for i := range m.atoms {
		electrons[i] = piElectrons(m, i)
	}

	aromaticBond := make([]bool, len(m.bonds))
	for _, ring := range simpleRings(m, maxAromaticRing) {
		total := 0
		ok := true
		for _, a := range ring {
			if electrons[a] < 0 {
				ok = false
				break
			}
			total += electrons[a]
		}
		if !ok || total < 2 || (total-2)%4 != 0 {
			continue
		}
		for j, a := range ring {
			aromaticBond[m.BondBetween(a, ring[(j+1)%len(ring)])] = true
		}
	}

	for i, aromatic := range aromaticBond {
		if !aromatic {
			continue
		}
		b := &m.bonds[i]
		b.Order = BondAromatic
		m.atoms[b.Begin].Aromatic = true
		m.atoms[b.End].Aromatic = true
	}
}

// piElectrons returns the number of pi electrons atom i contributes to a
// ring it belongs to, or -1 when the atom cannot be part of an aromatic ring.
func piElectrons(m *Molecule, i int) int {
	a := m.atoms[i]
	doubles := 0
	ringDouble, exoHetero := false, false
	for _, nb := range m.adj[i] {
		switch m.bonds[nb.bond].Order {
		case BondDouble:
			doubles++
			switch {
			case m.ringBond[nb.bond]:
				ringDouble = true
			case isElectronegative(m.atoms[nb.atom].AtomicNum):
				exoHetero = true
			default:
				return -1
			}
		case BondTriple, BondQuadruple:
			return -1
		}
	}
	switch {
	case doubles > 1:
		return -1
	case ringDouble:
		return 1
	case exoHetero:
		return 0
	}

	conns := len(m.adj[i]) + a.HCount
	switch a.AtomicNum {
	case 7, 15, 33:
		if a.Charge == 0 && conns == 3 {
			return 2
		}
	case 8, 16, 34, 52:
		if a.Charge == 0 && conns == 2 {
			return 2
		}
	case 6:
		if a.Charge == -1 && conns == 3 {
			return 2
		}
		if a.Charge == 1 && conns == 3 {
			return 0
		}
	case 5:
		if a.Charge == 0 && conns == 3 {
			return 0
		}
	}
	return -1
}

func isElectronegative(num int) bool {
	return num == 7 || num == 8 || num == 16
}

// simpleRings enumerates the simple cycles of ring bonds with at most
// maxSize atoms. Each ring starts at its lowest atom index and runs toward
// its lower-indexed neighbor, so every ring is reported once.
func simpleRings(m *Molecule, maxSize int) [][]int {
	var rings [][]int
	onPath := make([]bool, len(m.atoms))
	var path []int

	var extend func(start, u int)
	extend = func(start, u int) {
		for _, nb := range m.adj[u] {
			if !m.ringBond[nb.bond] {
				continue
			}
			v := nb.atom
			if v == start {
				if len(path) >= 3 && path[1] < path[len(path)-1] {
					rings = append(rings, append([]int(nil), path...))
				}
				continue
			}
			if v < start || onPath[v] || len(path) == maxSize {
				continue
			}
			onPath[v] = true
			path = append(path, v)
			extend(start, v)
			path = path[:len(path)-1]
			onPath[v] = false
		}
	}

	for start := range m.atoms {
		if !m.ringAtom[start] {
			continue
		}
		path = append(path[:0], start)
		onPath[start] = true
		extend(start, start)
		onPath[start] = false
	}
	return rings
}

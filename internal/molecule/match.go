package molecule

// firstMatch finds the first substructure embedding of p in m.
//
// Pattern atoms are assigned in pattern order. Each pattern atom takes its
// candidates from the neighbors of the earliest already-mapped pattern
// neighbor, or from every molecule atom when it starts a new component;
// candidates are tried in ascending molecule index. The first complete
// assignment wins, so the result depends only on the two inputs.
func firstMatch(m *Molecule, p *Pattern) ([]int, bool) {
	n := len(p.atoms)
	if n == 0 || n > len(m.atoms) {
		return nil, false
	}

	mapping := make([]int, n)
	for i := range mapping {
		mapping[i] = -1
	}
	used := make([]bool, len(m.atoms))

	var extend func(k int) bool
	extend = func(k int) bool {
		if k == n {
			return true
		}

		anchor := -1
		for _, nb := range p.adj[k] {
			if nb.atom < k {
				anchor = nb.atom
				break
			}
		}

		try := func(cand int) bool {
			if used[cand] || !p.atoms[k].matchAtom(m, cand) {
				return false
			}
			for _, nb := range p.adj[k] {
				if nb.atom >= k {
					continue
				}
				bond := m.BondBetween(mapping[nb.atom], cand)
				if bond < 0 || !p.bonds[nb.bond].expr.matchBond(m, bond) {
					return false
				}
			}
			mapping[k] = cand
			used[cand] = true
			if extend(k + 1) {
				return true
			}
			mapping[k] = -1
			used[cand] = false
			return false
		}

		if anchor >= 0 {
			for _, nb := range m.adj[mapping[anchor]] {
				if try(nb.atom) {
					return true
				}
			}
			return false
		}
		for cand := range m.atoms {
			if try(cand) {
				return true
			}
		}
		return false
	}

	if !extend(0) {
		return nil, false
	}
	return mapping, true
}

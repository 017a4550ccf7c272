package molecule

import (
	"fmt"
	"strings"
)

// DefaultMaxAtoms bounds the size of structures accepted by ParseSMILES.
const DefaultMaxAtoms = 1000

// ParseSMILES parses a SMILES string into a Molecule.
//
// Surrounding whitespace is trimmed; anything after the first inner
// whitespace is treated as a title and ignored. Returns *ParseError for
// empty input, syntax errors, unknown elements, duplicate bonds, aromatic
// atoms outside rings, aromatic systems with no Kekule form, and
// valence violations of organic-subset atoms.
//
// Aromatic input is kekulized and aromaticity is then perceived from the
// Kekule structure, so c1ccccc1 and C1=CC=CC=C1 parse to the same graph.
func ParseSMILES(text string) (*Molecule, error) {
	return parseSMILES(text, DefaultMaxAtoms)
}

func parseSMILES(text string, maxAtoms int) (*Molecule, error) {
	src := strings.TrimSpace(text)
	if i := strings.IndexAny(src, " \t\r\n"); i >= 0 {
		src = src[:i]
	}
	s := &scanner{src: src}
	if src == "" {
		return nil, s.errorf(0, "empty structure")
	}

	p := &smilesParser{src: src, maxAtoms: maxAtoms}
	if _, err := walkChain[BondOrder](s, p); err != nil {
		return nil, err
	}

	m := newMolecule(src, p.atoms, p.bonds)
	for i, a := range m.atoms {
		if a.Aromatic && !m.ringAtom[i] {
			return nil, s.errorf(p.atomPos[i], "aromatic atom %d (%s) is not in a ring", i, a.Symbol)
		}
	}
	if err := kekulize(s, m, p.atomPos); err != nil {
		return nil, err
	}
	if err := assignHydrogens(s, m, p.atomPos); err != nil {
		return nil, err
	}
	perceiveAromaticity(m)
	return m, nil
}

// smilesParser accumulates atoms and bonds for walkChain.
// A zero BondOrder means no bond symbol was written.
type smilesParser struct {
	src      string
	atoms    []Atom
	atomPos  []int
	bonds    []Bond
	maxAtoms int
}

func (p *smilesParser) addAtom(s *scanner, pos int, a Atom) (int, error) {
	if len(p.atoms) >= p.maxAtoms {
		return 0, s.errorf(pos, "structure exceeds %d atoms", p.maxAtoms)
	}
	p.atoms = append(p.atoms, a)
	p.atomPos = append(p.atomPos, pos)
	return len(p.atoms) - 1, nil
}

func (p *smilesParser) parseAtom(s *scanner) (int, error) {
	pos := s.pos
	c := s.peek()

	if c == '[' {
		a, err := parseBracketAtom(s)
		if err != nil {
			return 0, err
		}
		return p.addAtom(s, pos, a)
	}

	if c == '*' {
		s.next()
		return p.addAtom(s, pos, Atom{Symbol: "*", AtomicNum: 0})
	}

	for _, sym := range organicAliphatic {
		if s.hasPrefix(sym) {
			s.pos += len(sym)
			num, _ := AtomicNumber(sym)
			return p.addAtom(s, pos, Atom{Symbol: sym, AtomicNum: num})
		}
	}
	for _, sym := range organicAromatic {
		if s.hasPrefix(sym) {
			s.pos += len(sym)
			upper := strings.ToUpper(sym)
			num, _ := AtomicNumber(upper)
			return p.addAtom(s, pos, Atom{Symbol: upper, AtomicNum: num, Aromatic: true})
		}
	}

	if isUpper(c) || isLower(c) {
		return 0, s.errorf(pos, "unknown element %q outside brackets", string(c))
	}
	return 0, s.errorf(pos, "unexpected character %q", string(c))
}

func (p *smilesParser) parseBond(s *scanner) (BondOrder, bool, error) {
	var order BondOrder
	switch s.peek() {
	case '-', '/', '\\':
		order = BondSingle
	case '=':
		order = BondDouble
	case '#':
		order = BondTriple
	case '$':
		order = BondQuadruple
	case ':':
		order = BondAromatic
	default:
		return 0, false, nil
	}
	s.next()
	return order, true, nil
}

func (p *smilesParser) connect(a, b int, order BondOrder, explicit bool, pos int) error {
	if !explicit {
		order = BondSingle
		if p.atoms[a].Aromatic && p.atoms[b].Aromatic {
			order = BondAromatic
		}
	}
	for _, existing := range p.bonds {
		if (existing.Begin == a && existing.End == b) || (existing.Begin == b && existing.End == a) {
			return &ParseError{Input: p.src, Pos: pos, Msg: fmt.Sprintf("duplicate bond between atoms %d and %d", a, b)}
		}
	}
	p.bonds = append(p.bonds, Bond{Begin: a, End: b, Order: order})
	return nil
}

// assignHydrogens computes implicit hydrogens for organic-subset atoms and
// rejects atoms whose explicit bonds exceed every allowed valence. Bond
// orders must already be kekulized.
func assignHydrogens(s *scanner, m *Molecule, atomPos []int) error {
	sums := make([]int, len(m.atoms))
	for _, b := range m.bonds {
		v := b.Order.valence()
		sums[b.Begin] += v
		sums[b.End] += v
	}

	for i := range m.atoms {
		a := &m.atoms[i]
		if a.Bracket || a.AtomicNum == 0 {
			continue
		}
		sum := sums[i]
		assigned := false
		for _, v := range organicValences[a.AtomicNum] {
			if sum <= v {
				a.HCount = v - sum
				assigned = true
				break
			}
		}
		if !assigned {
			return s.errorf(atomPos[i], "explicit valence %d exceeds allowed valence for atom %d (%s)", sum, i, a.Symbol)
		}
	}
	return nil
}

// parseBracketAtom parses [isotope? symbol chiral? hcount? charge? class?].
func parseBracketAtom(s *scanner) (Atom, error) {
	start := s.pos
	s.next() // '['

	a := Atom{Bracket: true}
	if iso, ok := s.number(); ok {
		a.Isotope = iso
	}

	symPos := s.pos
	sym, aromatic, ok := bracketSymbol(s)
	if !ok {
		return a, s.errorf(symPos, "invalid element symbol in bracket atom")
	}
	num, known := AtomicNumber(sym)
	if !known {
		return a, s.errorf(symPos, "unknown element %q", sym)
	}
	a.Symbol = sym
	a.AtomicNum = num
	a.Aromatic = aromatic

	skipChirality(s)

	if s.peek() == 'H' {
		s.next()
		a.HCount = 1
		if n, ok := s.number(); ok {
			a.HCount = n
		}
	}

	charge, err := parseCharge(s)
	if err != nil {
		return a, err
	}
	a.Charge = charge

	if s.peek() == ':' {
		s.next()
		n, ok := s.number()
		if !ok {
			return a, s.errorf(s.pos, "atom class must be a number")
		}
		a.Class = n
	}

	if s.peek() != ']' {
		if s.done() {
			return a, s.errorf(start, "unclosed bracket atom")
		}
		return a, s.errorf(s.pos, "unexpected %q in bracket atom", string(s.peek()))
	}
	s.next()
	return a, nil
}

// bracketSymbol reads an element symbol inside brackets. Lowercase symbols
// are aromatic and returned in their capitalised form.
func bracketSymbol(s *scanner) (string, bool, bool) {
	c := s.peek()
	switch {
	case c == '*':
		s.next()
		return "*", false, true
	case isUpper(c):
		if isLower(s.peekAt(1)) {
			two := s.src[s.pos : s.pos+2]
			if _, ok := AtomicNumber(two); ok {
				s.pos += 2
				return two, false, true
			}
		}
		s.next()
		return string(c), false, true
	case isLower(c):
		for _, sym := range bracketAromatic {
			if s.hasPrefix(sym) {
				s.pos += len(sym)
				return strings.ToUpper(sym[:1]) + sym[1:], true, true
			}
		}
	}
	return "", false, false
}

// skipChirality consumes @, @@ and the @TH1 style classes. Stereo is ignored.
func skipChirality(s *scanner) {
	if s.peek() != '@' {
		return
	}
	for s.peek() == '@' {
		s.next()
	}
	for _, class := range []string{"TH", "AL", "SP", "TB", "OH"} {
		if s.hasPrefix(class) {
			s.pos += len(class)
			s.number()
			return
		}
	}
}

// parseCharge reads +, ++, +n, -, --, -n.
func parseCharge(s *scanner) (int, error) {
	c := s.peek()
	if c != '+' && c != '-' {
		return 0, nil
	}
	sign := 1
	if c == '-' {
		sign = -1
	}
	s.next()
	if n, ok := s.number(); ok {
		return sign * n, nil
	}
	mag := 1
	for s.peek() == c {
		s.next()
		mag++
	}
	return sign * mag, nil
}

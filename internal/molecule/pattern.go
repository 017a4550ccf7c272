package molecule

import (
	"strings"
)

// Pattern is an immutable compiled substructure query.
type Pattern struct {
	text  string
	atoms []atomExpr
	bonds []patternBond
	adj   [][]patternNeighbor // sorted by neighbor atom index
}

type patternBond struct {
	begin, end int
	expr       bondExpr
}

type patternNeighbor struct {
	atom int
	bond int
}

// Text returns the pattern source.
func (p *Pattern) Text() string { return p.text }

// NumAtoms returns the number of query atoms.
func (p *Pattern) NumAtoms() int { return len(p.atoms) }

// NumBonds returns the number of query bonds.
func (p *Pattern) NumBonds() int { return len(p.bonds) }

// CompileSMARTS compiles a SMARTS pattern.
//
// Supported: organic-subset symbols with aliphatic/aromatic semantics, *, A,
// a; bracket expressions combining element symbols, #n, Hn, Dn, R, R0, +n and
// -n with !, &, ',' and ';'; bonds - = # : ~ @ (with ! and ','); branches,
// ring closures and dot-separated components. An unwritten bond matches
// single or aromatic.
func CompileSMARTS(text string) (*Pattern, error) {
	src := strings.TrimSpace(text)
	s := &scanner{src: src}
	if src == "" {
		return nil, s.errorf(0, "empty pattern")
	}

	c := &smartsCompiler{src: src}
	if _, err := walkChain[string](s, c); err != nil {
		return nil, err
	}

	p := &Pattern{
		text:  src,
		atoms: c.atoms,
		bonds: c.bonds,
		adj:   make([][]patternNeighbor, len(c.atoms)),
	}
	for i, b := range c.bonds {
		p.adj[b.begin] = append(p.adj[b.begin], patternNeighbor{atom: b.end, bond: i})
		p.adj[b.end] = append(p.adj[b.end], patternNeighbor{atom: b.begin, bond: i})
	}
	for _, nbs := range p.adj {
		sortPatternNeighbors(nbs)
	}
	return p, nil
}

// MustCompileSMARTS is like CompileSMARTS but panics on error.
// Use only for patterns known at compile time.
func MustCompileSMARTS(text string) *Pattern {
	p, err := CompileSMARTS(text)
	if err != nil {
		panic(err)
	}
	return p
}

func sortPatternNeighbors(nbs []patternNeighbor) {
	for i := 1; i < len(nbs); i++ {
		for j := i; j > 0 && nbs[j].atom < nbs[j-1].atom; j-- {
			nbs[j], nbs[j-1] = nbs[j-1], nbs[j]
		}
	}
}

// smartsCompiler is the walkChain handler for SMARTS. Bond tokens are the
// bond expression source text; "" means no bond was written.
type smartsCompiler struct {
	src   string
	atoms []atomExpr
	bonds []patternBond
}

func (c *smartsCompiler) parseAtom(s *scanner) (int, error) {
	pos := s.pos
	ch := s.peek()

	var expr atomExpr
	switch {
	case ch == '[':
		s.next()
		e, err := parseAtomExpr(s)
		if err != nil {
			return 0, err
		}
		if s.peek() != ']' {
			if s.done() {
				return 0, s.errorf(pos, "unclosed bracket expression")
			}
			return 0, s.errorf(s.pos, "unexpected %q in bracket expression", string(s.peek()))
		}
		s.next()
		expr = e
	case ch == '*':
		s.next()
		expr = anyAtom{}
	case ch == 'A':
		s.next()
		expr = aromaticAtom{want: false}
	case ch == 'a':
		s.next()
		expr = aromaticAtom{want: true}
	default:
		e, ok := organicPrimitive(s)
		if !ok {
			return 0, s.errorf(pos, "unexpected character %q in pattern", string(ch))
		}
		expr = e
	}

	c.atoms = append(c.atoms, expr)
	return len(c.atoms) - 1, nil
}

// organicPrimitive reads an unbracketed organic-subset symbol.
func organicPrimitive(s *scanner) (atomExpr, bool) {
	for _, sym := range organicAliphatic {
		if s.hasPrefix(sym) {
			s.pos += len(sym)
			num, _ := AtomicNumber(sym)
			return elementAtom{num: num, aromatic: aromaticNo}, true
		}
	}
	for _, sym := range organicAromatic {
		if s.hasPrefix(sym) {
			s.pos += len(sym)
			num, _ := AtomicNumber(strings.ToUpper(sym))
			return elementAtom{num: num, aromatic: aromaticYes}, true
		}
	}
	return nil, false
}

func (c *smartsCompiler) parseBond(s *scanner) (string, bool, error) {
	start := s.pos
	for !s.done() && isBondChar(s.peek()) {
		s.next()
	}
	if s.pos == start {
		return "", false, nil
	}
	text := s.src[start:s.pos]
	if _, err := compileBondExpr(text); err != nil {
		return "", false, &ParseError{Input: c.src, Pos: start, Msg: err.Error()}
	}
	return text, true, nil
}

func isBondChar(ch byte) bool {
	return strings.IndexByte(`-=#:~@!,;&/\`, ch) >= 0
}

func (c *smartsCompiler) connect(a, b int, text string, explicit bool, pos int) error {
	expr := bondExpr(defaultBond{})
	if explicit {
		e, err := compileBondExpr(text)
		if err != nil {
			return &ParseError{Input: c.src, Pos: pos, Msg: err.Error()}
		}
		expr = e
	}
	for _, existing := range c.bonds {
		if (existing.begin == a && existing.end == b) || (existing.begin == b && existing.end == a) {
			return &ParseError{Input: c.src, Pos: pos, Msg: "duplicate bond in pattern"}
		}
	}
	c.bonds = append(c.bonds, patternBond{begin: a, end: b, expr: expr})
	return nil
}

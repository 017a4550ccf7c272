package molecule

import (
	"errors"
	"fmt"
)

// atomExpr is a compiled atom query.
type atomExpr interface {
	matchAtom(m *Molecule, i int) bool
}

// bondExpr is a compiled bond query.
type bondExpr interface {
	matchBond(m *Molecule, b int) bool
}

type aromaticity int

const (
	aromaticAny aromaticity = iota
	aromaticNo
	aromaticYes
)

type anyAtom struct{}

func (anyAtom) matchAtom(*Molecule, int) bool { return true }

type aromaticAtom struct{ want bool }

func (q aromaticAtom) matchAtom(m *Molecule, i int) bool {
	return m.atoms[i].Aromatic == q.want
}

type elementAtom struct {
	num      int
	aromatic aromaticity
}

func (q elementAtom) matchAtom(m *Molecule, i int) bool {
	a := m.atoms[i]
	if a.AtomicNum != q.num {
		return false
	}
	switch q.aromatic {
	case aromaticNo:
		return !a.Aromatic
	case aromaticYes:
		return a.Aromatic
	}
	return true
}

type hydrogenAtom struct{ count int }

func (q hydrogenAtom) matchAtom(m *Molecule, i int) bool {
	return m.atoms[i].HCount == q.count
}

type degreeAtom struct{ degree int }

func (q degreeAtom) matchAtom(m *Molecule, i int) bool {
	return m.Degree(i) == q.degree
}

type ringAtom struct{ in bool }

func (q ringAtom) matchAtom(m *Molecule, i int) bool {
	return m.ringAtom[i] == q.in
}

type chargeAtom struct{ charge int }

func (q chargeAtom) matchAtom(m *Molecule, i int) bool {
	return m.atoms[i].Charge == q.charge
}

type notAtom struct{ x atomExpr }

func (q notAtom) matchAtom(m *Molecule, i int) bool { return !q.x.matchAtom(m, i) }

type andAtom struct{ l, r atomExpr }

func (q andAtom) matchAtom(m *Molecule, i int) bool {
	return q.l.matchAtom(m, i) && q.r.matchAtom(m, i)
}

type orAtom struct{ l, r atomExpr }

func (q orAtom) matchAtom(m *Molecule, i int) bool {
	return q.l.matchAtom(m, i) || q.r.matchAtom(m, i)
}

// parseAtomExpr parses the inside of a bracket atom.
// Precedence, loosest first: ';' (and), ',' (or), '&' or juxtaposition
// (and), '!' (not).
func parseAtomExpr(s *scanner) (atomExpr, error) {
	left, err := parseAtomOr(s)
	if err != nil {
		return nil, err
	}
	for s.peek() == ';' {
		s.next()
		right, err := parseAtomOr(s)
		if err != nil {
			return nil, err
		}
		left = andAtom{left, right}
	}
	return left, nil
}

func parseAtomOr(s *scanner) (atomExpr, error) {
	left, err := parseAtomAnd(s)
	if err != nil {
		return nil, err
	}
	for s.peek() == ',' {
		s.next()
		right, err := parseAtomAnd(s)
		if err != nil {
			return nil, err
		}
		left = orAtom{left, right}
	}
	return left, nil
}

func parseAtomAnd(s *scanner) (atomExpr, error) {
	left, err := parseAtomUnary(s)
	if err != nil {
		return nil, err
	}
	for {
		c := s.peek()
		if c == '&' {
			s.next()
		} else if c == ']' || c == ',' || c == ';' || s.done() {
			return left, nil
		}
		right, err := parseAtomUnary(s)
		if err != nil {
			return nil, err
		}
		left = andAtom{left, right}
	}
}

func parseAtomUnary(s *scanner) (atomExpr, error) {
	if s.peek() == '!' {
		s.next()
		x, err := parseAtomUnary(s)
		if err != nil {
			return nil, err
		}
		return notAtom{x}, nil
	}
	return parseAtomPrimitive(s)
}

func parseAtomPrimitive(s *scanner) (atomExpr, error) {
	pos := s.pos
	c := s.peek()
	switch {
	case s.done():
		return nil, s.errorf(pos, "unexpected end of bracket expression")
	case c == '*':
		s.next()
		return anyAtom{}, nil
	case c == 'a':
		s.next()
		return aromaticAtom{want: true}, nil
	case c == 'A':
		s.next()
		return aromaticAtom{want: false}, nil
	case c == '#':
		s.next()
		n, ok := s.number()
		if !ok {
			return nil, s.errorf(pos, "'#' must be followed by an atomic number")
		}
		if ElementSymbol(n) == "" {
			return nil, s.errorf(pos, "unknown atomic number %d", n)
		}
		return elementAtom{num: n, aromatic: aromaticAny}, nil
	case c == 'H':
		// A leading H not followed by a count is the hydrogen element.
		if s.pos > 0 && s.src[s.pos-1] == '[' && !isDigit(s.peekAt(1)) && !isLower(s.peekAt(1)) {
			s.next()
			return elementAtom{num: 1, aromatic: aromaticAny}, nil
		}
		if isLower(s.peekAt(1)) {
			break
		}
		s.next()
		n, ok := s.number()
		if !ok {
			n = 1
		}
		return hydrogenAtom{count: n}, nil
	case c == 'D':
		if isLower(s.peekAt(1)) {
			break
		}
		s.next()
		n, ok := s.number()
		if !ok {
			n = 1
		}
		return degreeAtom{degree: n}, nil
	case c == 'R':
		if isLower(s.peekAt(1)) {
			break
		}
		s.next()
		n, ok := s.number()
		if ok && n == 0 {
			return ringAtom{in: false}, nil
		}
		return ringAtom{in: true}, nil
	case c == '+' || c == '-':
		charge, _ := parseCharge(s)
		return chargeAtom{charge: charge}, nil
	}

	sym, aromatic, ok := bracketSymbol(s)
	if !ok || sym == "*" {
		return nil, s.errorf(pos, "unexpected %q in bracket expression", string(c))
	}
	num, known := AtomicNumber(sym)
	if !known {
		return nil, s.errorf(pos, "unknown element %q", sym)
	}
	if aromatic {
		return elementAtom{num: num, aromatic: aromaticYes}, nil
	}
	return elementAtom{num: num, aromatic: aromaticNo}, nil
}

type defaultBond struct{}

func (defaultBond) matchBond(m *Molecule, b int) bool {
	o := m.bonds[b].Order
	return o == BondSingle || o == BondAromatic
}

type orderBond struct{ order BondOrder }

func (q orderBond) matchBond(m *Molecule, b int) bool { return m.bonds[b].Order == q.order }

type anyBond struct{}

func (anyBond) matchBond(*Molecule, int) bool { return true }

type ringBond struct{}

func (ringBond) matchBond(m *Molecule, b int) bool { return m.ringBond[b] }

type notBond struct{ x bondExpr }

func (q notBond) matchBond(m *Molecule, b int) bool { return !q.x.matchBond(m, b) }

type andBond struct{ l, r bondExpr }

func (q andBond) matchBond(m *Molecule, b int) bool {
	return q.l.matchBond(m, b) && q.r.matchBond(m, b)
}

type orBond struct{ l, r bondExpr }

func (q orBond) matchBond(m *Molecule, b int) bool {
	return q.l.matchBond(m, b) || q.r.matchBond(m, b)
}

var errEmptyBond = errors.New("empty bond expression")

// compileBondExpr compiles bond expression text using the same precedence
// rules as atom expressions.
func compileBondExpr(text string) (bondExpr, error) {
	s := &scanner{src: text}
	e, err := parseBondLowAnd(s)
	if err != nil {
		return nil, err
	}
	if !s.done() {
		return nil, fmt.Errorf("unexpected %q in bond expression", string(s.peek()))
	}
	return e, nil
}

func parseBondLowAnd(s *scanner) (bondExpr, error) {
	left, err := parseBondOr(s)
	if err != nil {
		return nil, err
	}
	for s.peek() == ';' {
		s.next()
		right, err := parseBondOr(s)
		if err != nil {
			return nil, err
		}
		left = andBond{left, right}
	}
	return left, nil
}

func parseBondOr(s *scanner) (bondExpr, error) {
	left, err := parseBondAnd(s)
	if err != nil {
		return nil, err
	}
	for s.peek() == ',' {
		s.next()
		right, err := parseBondAnd(s)
		if err != nil {
			return nil, err
		}
		left = orBond{left, right}
	}
	return left, nil
}

func parseBondAnd(s *scanner) (bondExpr, error) {
	left, err := parseBondUnary(s)
	if err != nil {
		return nil, err
	}
	for !s.done() && s.peek() != ',' && s.peek() != ';' {
		if s.peek() == '&' {
			s.next()
		}
		right, err := parseBondUnary(s)
		if err != nil {
			return nil, err
		}
		left = andBond{left, right}
	}
	return left, nil
}

func parseBondUnary(s *scanner) (bondExpr, error) {
	if s.done() {
		return nil, errEmptyBond
	}
	c := s.next()
	switch c {
	case '!':
		x, err := parseBondUnary(s)
		if err != nil {
			return nil, err
		}
		return notBond{x}, nil
	case '-', '/', '\\':
		return orderBond{BondSingle}, nil
	case '=':
		return orderBond{BondDouble}, nil
	case '#':
		return orderBond{BondTriple}, nil
	case ':':
		return orderBond{BondAromatic}, nil
	case '~':
		return anyBond{}, nil
	case '@':
		return ringBond{}, nil
	}
	return nil, fmt.Errorf("unexpected %q in bond expression", string(c))
}

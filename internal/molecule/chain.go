package molecule

import (
	"fmt"
	"sort"
)

// scanner walks structure or pattern text byte by byte.
type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.done() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	if s.pos+offset >= len(s.src) {
		return 0
	}
	return s.src[s.pos+offset]
}

func (s *scanner) next() byte {
	c := s.peek()
	s.pos++
	return c
}

// hasPrefix reports whether the unread input starts with p.
func (s *scanner) hasPrefix(p string) bool {
	return len(s.src)-s.pos >= len(p) && s.src[s.pos:s.pos+len(p)] == p
}

// number reads a run of decimal digits. ok is false if there are none.
func (s *scanner) number() (n int, ok bool) {
	for !s.done() && isDigit(s.peek()) {
		n = n*10 + int(s.next()-'0')
		ok = true
	}
	return n, ok
}

func (s *scanner) errorf(pos int, format string, args ...any) *ParseError {
	return &ParseError{Input: s.src, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

// chainHandler receives the atoms and bonds found by walkChain.
// B is the bond token type: a bond order for SMILES, a query for SMARTS.
type chainHandler[B comparable] interface {
	// parseAtom consumes one atom at the scanner position and returns its index.
	parseAtom(s *scanner) (int, error)

	// parseBond consumes a bond symbol if one is present.
	parseBond(s *scanner) (B, bool, error)

	// connect adds a bond between two existing atoms. explicit is false when
	// no bond symbol was written.
	connect(a, b int, bond B, explicit bool, pos int) error
}

type ringOpening[B comparable] struct {
	atom     int
	bond     B
	explicit bool
	pos      int
}

// walkChain parses the shared line notation of SMILES and SMARTS: chains,
// branches, ring closures and dot-separated components. Atom and bond
// symbols are delegated to h.
func walkChain[B comparable](s *scanner, h chainHandler[B]) (int, error) {
	var (
		zero        B
		prev        = -1
		pending     B
		hasPending  bool
		pendingPos  int
		branches    []int
		branchPos   []int
		rings       = make(map[int]ringOpening[B])
		atoms       int
		componentOK = false
	)

	for !s.done() {
		c := s.peek()
		switch {
		case c == '(':
			if prev < 0 {
				return 0, s.errorf(s.pos, "branch without a preceding atom")
			}
			if hasPending {
				return 0, s.errorf(pendingPos, "bond before branch")
			}
			branches = append(branches, prev)
			branchPos = append(branchPos, s.pos)
			s.next()

		case c == ')':
			if len(branches) == 0 {
				return 0, s.errorf(s.pos, "unbalanced ')'")
			}
			if hasPending {
				return 0, s.errorf(pendingPos, "bond without a following atom")
			}
			if s.pos > 0 && s.src[s.pos-1] == '(' {
				return 0, s.errorf(s.pos, "empty branch")
			}
			prev = branches[len(branches)-1]
			branches = branches[:len(branches)-1]
			branchPos = branchPos[:len(branchPos)-1]
			s.next()

		case c == '.':
			if hasPending {
				return 0, s.errorf(pendingPos, "bond without a following atom")
			}
			if !componentOK {
				return 0, s.errorf(s.pos, "empty component")
			}
			prev = -1
			componentOK = false
			s.next()

		case isDigit(c) || c == '%':
			pos := s.pos
			num, err := ringNumber(s)
			if err != nil {
				return 0, err
			}
			if prev < 0 {
				return 0, s.errorf(pos, "ring closure %d without a preceding atom", num)
			}
			open, ok := rings[num]
			if !ok {
				rings[num] = ringOpening[B]{atom: prev, bond: pending, explicit: hasPending, pos: pos}
				pending, hasPending = zero, false
				continue
			}
			delete(rings, num)

			bond, explicit := open.bond, open.explicit
			if hasPending {
				if open.explicit && open.bond != pending {
					return 0, s.errorf(pos, "conflicting bond symbols for ring closure %d", num)
				}
				bond, explicit = pending, true
			}
			if open.atom == prev {
				return 0, s.errorf(pos, "ring closure %d bonds an atom to itself", num)
			}
			if err := h.connect(open.atom, prev, bond, explicit, pos); err != nil {
				return 0, err
			}
			pending, hasPending = zero, false

		default:
			pos := s.pos
			bond, ok, err := h.parseBond(s)
			if err != nil {
				return 0, err
			}
			if ok {
				if hasPending {
					return 0, s.errorf(pos, "consecutive bond symbols")
				}
				if prev < 0 {
					return 0, s.errorf(pos, "bond without a preceding atom")
				}
				pending, hasPending, pendingPos = bond, true, pos
				continue
			}

			idx, err := h.parseAtom(s)
			if err != nil {
				return 0, err
			}
			atoms++
			componentOK = true
			if prev >= 0 {
				if err := h.connect(prev, idx, pending, hasPending, pos); err != nil {
					return 0, err
				}
			}
			pending, hasPending = zero, false
			prev = idx
		}
	}

	if hasPending {
		return 0, s.errorf(pendingPos, "bond without a following atom")
	}
	if len(branches) > 0 {
		return 0, s.errorf(branchPos[len(branchPos)-1], "unclosed branch")
	}
	if len(rings) > 0 {
		open := make([]int, 0, len(rings))
		for num := range rings {
			open = append(open, num)
		}
		sort.Ints(open)
		return 0, s.errorf(rings[open[0]].pos, "unclosed ring %d", open[0])
	}
	if atoms > 0 && !componentOK {
		return 0, s.errorf(s.pos, "empty component")
	}
	return atoms, nil
}

// ringNumber reads a ring closure label: a single digit or %nn.
func ringNumber(s *scanner) (int, error) {
	if s.peek() != '%' {
		return int(s.next() - '0'), nil
	}
	pos := s.pos
	s.next()
	if !isDigit(s.peek()) || !isDigit(s.peekAt(1)) {
		return 0, s.errorf(pos, "'%%' must be followed by two digits")
	}
	n := int(s.next()-'0')*10 + int(s.next()-'0')
	return n, nil
}

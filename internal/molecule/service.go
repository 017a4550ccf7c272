package molecule

// Service parses structures, compiles patterns and runs substructure
// search. A Service holds only configuration and is safe for concurrent use.
type Service struct {
	maxAtoms int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxAtoms bounds the number of atoms Parse accepts. Values below one
// are ignored.
func WithMaxAtoms(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxAtoms = n
		}
	}
}

// NewService creates a Service.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{maxAtoms: DefaultMaxAtoms}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse parses SMILES text into a Molecule.
func (s *Service) Parse(text string) (*Molecule, error) {
	return parseSMILES(text, s.maxAtoms)
}

// CompilePattern compiles SMARTS text into a Pattern.
func (s *Service) CompilePattern(text string) (*Pattern, error) {
	return CompileSMARTS(text)
}

// Matches reports whether p occurs anywhere in m.
func (s *Service) Matches(m *Molecule, p *Pattern) bool {
	_, ok := firstMatch(m, p)
	return ok
}

// FirstMatch returns the molecule atom index assigned to each pattern atom,
// in pattern order, for the first embedding found.
func (s *Service) FirstMatch(m *Molecule, p *Pattern) ([]int, bool) {
	return firstMatch(m, p)
}

package molecule

// elementSymbols lists element symbols by atomic number (index 0 is the
// wildcard atom "*").
var elementSymbols = []string{
	"*",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra", "Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf",
	"Es", "Fm", "Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var atomicNumbers = func() map[string]int {
	m := make(map[string]int, len(elementSymbols))
	for i, sym := range elementSymbols {
		m[sym] = i
	}
	return m
}()

// AtomicNumber returns the atomic number for an element symbol.
func AtomicNumber(symbol string) (int, bool) {
	n, ok := atomicNumbers[symbol]
	return n, ok
}

// ElementSymbol returns the symbol for an atomic number, or "" if unknown.
func ElementSymbol(num int) string {
	if num < 0 || num >= len(elementSymbols) {
		return ""
	}
	return elementSymbols[num]
}

// organicValences holds the allowed valences of the SMILES organic subset,
// lowest first. Implicit hydrogens fill up to the lowest valence that is
// not exceeded by explicit bonds.
var organicValences = map[int][]int{
	5:  {3},       // B
	6:  {4},       // C
	7:  {3, 5},    // N
	8:  {2},       // O
	9:  {1},       // F
	15: {3, 5},    // P
	16: {2, 4, 6}, // S
	17: {1},       // Cl
	35: {1},       // Br
	53: {1},       // I
}

// organicAliphatic is the unbracketed aliphatic organic subset.
// Two-letter symbols come first so that "Cl" is not read as "C".
var organicAliphatic = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I"}

// organicAromatic is the unbracketed aromatic organic subset.
var organicAromatic = []string{"b", "c", "n", "o", "p", "s"}

// bracketAromatic lists lowercase symbols allowed inside brackets.
var bracketAromatic = []string{"se", "as", "te", "b", "c", "n", "o", "p", "s"}

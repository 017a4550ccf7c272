package ir

// ArrowType categorises a predicted electron-pushing arrow.
type ArrowType string

const (
	// ArrowPiAttack is a pi bond acting as the nucleophile.
	ArrowPiAttack ArrowType = "pi_attack"
	// ArrowLonePairAttack is a lone pair acting as the nucleophile.
	ArrowLonePairAttack ArrowType = "lone_pair_attack"
	// ArrowSigmaCleavage is heterolytic cleavage of a sigma bond.
	ArrowSigmaCleavage ArrowType = "sigma_cleavage"
	// ArrowProtonTransfer is removal or delivery of a proton.
	ArrowProtonTransfer ArrowType = "proton_transfer"
)

// ValidArrowTypes defines the allowed arrow categories.
var ValidArrowTypes = map[ArrowType]bool{
	ArrowPiAttack:       true,
	ArrowLonePairAttack: true,
	ArrowSigmaCleavage:  true,
	ArrowProtonTransfer: true,
}

// Valid reports whether t is a known arrow category.
func (t ArrowType) Valid() bool {
	return ValidArrowTypes[t]
}

// ArrowAnnotation is a predicted arrow between two reactant atoms.
// Both indices refer to atoms of the reactant molecule.
type ArrowAnnotation struct {
	StartAtom int       `json:"start_atom"`
	EndAtom   int       `json:"end_atom"`
	Type      ArrowType `json:"type"`
}

// ReactionRule represents a compiled reaction rule.
//
// Patterns are carried as text; the rules package attaches the compiled
// query graphs. Priority equals the registration index and is assigned by
// the library, never by the rule author.
type ReactionRule struct {
	ID              string    `json:"id"`
	ReactantPattern string    `json:"reactant_pattern"`
	ReagentPattern  string    `json:"reagent_pattern"`
	ArrowType       ArrowType `json:"arrow_type"`
	Priority        int       `json:"priority"`
	Description     string    `json:"description,omitempty"`
}

// Evaluation is the audit record of a single suggest call.
type Evaluation struct {
	ID          string            `json:"id"` // Content-addressed hash
	Seq         int64             `json:"seq"`
	RequestID   string            `json:"request_id"`
	Reactant    string            `json:"reactant"`
	Reagent     string            `json:"reagent"`
	LibraryHash string            `json:"library_hash"`
	ResultHash  string            `json:"result_hash"`
	Arrows      []ArrowAnnotation `json:"arrows"`
	ParseError  string            `json:"parse_error,omitempty"`

	// Version tracking for replay compatibility
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

package server

import (
	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/ir"
)

// RenderRequest is the body of POST /render.
type RenderRequest struct {
	SMILES string               `json:"smiles"`
	Arrows []ir.ArrowAnnotation `json:"arrows,omitempty"`
}

// RenderResponse carries a base64-encoded PNG.
type RenderResponse struct {
	Image string `json:"image"`
}

// SuggestRequest is the body of POST /suggest.
type SuggestRequest struct {
	Reactant string `json:"reactant"`
	Reagent  string `json:"reagent"`
}

// SuggestResponse lists the suggested arrows. Error is set only when an
// input could not be parsed; Arrows is then empty.
type SuggestResponse struct {
	Arrows []ir.ArrowAnnotation `json:"arrows"`
	Error  *SuggestError        `json:"error,omitempty"`
}

// SuggestError describes an unparsable input.
type SuggestError struct {
	Code    string      `json:"code"`
	Side    engine.Side `json:"side"`
	Message string      `json:"message"`
}

// RulesResponse is the body of GET /rules.
type RulesResponse struct {
	LibraryHash string            `json:"library_hash"`
	Rules       []ir.ReactionRule `json:"rules"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	Rules         int    `json:"rules"`
	LibraryHash   string `json:"library_hash"`
	EngineVersion string `json:"engine_version"`
}

// ErrorResponse is the JSON body of request-level failures.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is a coded error message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned by the HTTP API.
const (
	CodeInvalidSMILES = "INVALID_SMILES"
	CodeBadRequest    = "BAD_REQUEST"
	CodeBodyTooLarge  = "BODY_TOO_LARGE"
	CodeInternal      = "INTERNAL"
)

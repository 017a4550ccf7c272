package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/ir"
	"github.com/roach88/arrowpush/internal/metrics"
	"github.com/roach88/arrowpush/internal/store"
)

func (s *Service) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !s.decode(w, r, &req) {
		return
	}

	mol, err := s.parser.Parse(req.SMILES)
	if err != nil {
		s.logger.Debug("render rejected", "request_id", RequestIDFrom(r.Context()), "smiles", req.SMILES, "error", err)
		s.observeRender(metrics.OutcomeError)
		writeText(w, http.StatusBadRequest, "Invalid SMILES")
		return
	}
	for _, a := range req.Arrows {
		if a.StartAtom < 0 || a.StartAtom >= mol.NumAtoms() || a.EndAtom < 0 || a.EndAtom >= mol.NumAtoms() {
			s.observeRender(metrics.OutcomeError)
			writeText(w, http.StatusBadRequest, "Invalid arrows")
			return
		}
	}

	png, err := s.renderer.Render(mol, req.Arrows...)
	if err != nil {
		s.logger.Error("render failed", "request_id", RequestIDFrom(r.Context()), "smiles", req.SMILES, "error", err)
		s.observeRender(metrics.OutcomeError)
		writeError(w, http.StatusInternalServerError, CodeInternal, "render failed")
		return
	}

	s.observeRender(metrics.OutcomeRendered)
	writeJSON(w, http.StatusOK, RenderResponse{Image: base64.StdEncoding.EncodeToString(png)})
}

func (s *Service) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !s.decode(w, r, &req) {
		return
	}
	requestID := RequestIDFrom(r.Context())

	resp := SuggestResponse{Arrows: []ir.ArrowAnnotation{}}
	outcome := metrics.OutcomeNoMatch

	res, err := s.engine.Suggest(req.Reactant, req.Reagent)
	var pf *engine.ParseFailure
	switch {
	case errors.As(err, &pf):
		outcome = metrics.OutcomeInvalidInput
		resp.Error = &SuggestError{
			Code:    CodeInvalidSMILES,
			Side:    pf.Side,
			Message: pf.Error(),
		}
	case err != nil:
		s.logger.Error("suggest failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "evaluation failed")
		return
	default:
		resp.Arrows = res.Arrows
		if len(res.Arrows) > 0 {
			outcome = metrics.OutcomeArrows
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveEvaluation(outcome)
	}
	s.record(r, req, resp)

	s.logger.Debug("suggest evaluated",
		"request_id", requestID,
		"reactant", req.Reactant,
		"reagent", req.Reagent,
		"outcome", outcome,
		"arrows", len(resp.Arrows),
	)
	writeJSON(w, http.StatusOK, resp)
}

// record appends the evaluation to the audit log. A failed write is logged
// and does not fail the request.
func (s *Service) record(r *http.Request, req SuggestRequest, resp SuggestResponse) {
	if s.recorder == nil {
		return
	}
	entry := store.Entry{
		RequestID:   RequestIDFrom(r.Context()),
		Reactant:    req.Reactant,
		Reagent:     req.Reagent,
		LibraryHash: s.engine.LibraryHash(),
		Arrows:      resp.Arrows,
	}
	if resp.Error != nil {
		entry.ParseError = resp.Error.Message
	}
	if _, err := s.recorder.Record(r.Context(), entry); err != nil {
		s.logger.Error("audit record failed", "request_id", entry.RequestID, "error", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Rules:         len(s.engine.Rules()),
		LibraryHash:   s.engine.LibraryHash(),
		EngineVersion: ir.EngineVersion,
	})
}

func (s *Service) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RulesResponse{
		LibraryHash: s.engine.LibraryHash(),
		Rules:       s.engine.Rules(),
	})
}

func (s *Service) observeRender(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRender(outcome)
	}
}

// decode reads a JSON body into v. On failure it writes the error response
// and returns false.
func (s *Service) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "request body too large")
		return false
	}
	s.logger.Debug("malformed request body", "request_id", RequestIDFrom(r.Context()), "error", err)
	writeError(w, http.StatusBadRequest, CodeBadRequest, "malformed JSON body")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	conndto "connviewer/internal/modules/connectivity/dto"
	linkdto "connviewer/internal/modules/link/dto"
	apperrors "connviewer/internal/platform/errors"
)

const maxBodyBytes = 64 << 20

// The table and plot callbacks read the connectivity result the page already
// holds instead of loading it again.

type tableRequest struct {
	Tab    linkdto.Tab                `json:"tab"`
	Result conndto.ConnectivityOutput `json:"result"`
}

type plotsRequest struct {
	Result conndto.ConnectivityOutput `json:"result"`
}

type tableResponse struct {
	Table   conndto.Table `json:"table"`
	Message string        `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("callback failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: fmt.Sprintf("malformed request body: %v", err),
		})
		return false
	}
	return true
}

// load runs the connectivity callback. Failures come back as an empty
// result carrying the error text so the page can show it.
func (s *Server) load(r *http.Request, input conndto.ConnectivityInput) conndto.ConnectivityOutput {
	out, err := s.conn.Connectivity(r.Context(), input)
	if err != nil {
		s.logger.Warn("connectivity failed", zap.String("anno_id", input.AnnoID), zap.Error(err))
		return conndto.EmptyConnectivity(err.Error())
	}
	return out
}

func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	var input conndto.ConnectivityInput
	if !decode(w, r, &input) {
		return
	}
	writeJSON(w, http.StatusOK, s.load(r, input))
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !decode(w, r, &req) {
		return
	}
	out := req.Result
	switch req.Tab {
	case linkdto.TabPre:
		writeJSON(w, http.StatusOK, tableResponse{Table: out.Targets, Message: out.Message})
	case linkdto.TabPost:
		writeJSON(w, http.StatusOK, tableResponse{Table: out.Sources, Message: out.Message})
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown tab %q", apperrors.ErrInvalidInput, req.Tab))
	}
}

func (s *Server) handlePlots(w http.ResponseWriter, r *http.Request) {
	var req plotsRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.plot.FiguresFor(req.Result))
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var input linkdto.SynapseLinkInput
	if !decode(w, r, &input) {
		return
	}
	out, err := s.link.SynapseLink(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCellTypeLink(w http.ResponseWriter, r *http.Request) {
	var input linkdto.CellTypeLinkInput
	if !decode(w, r, &input) {
		return
	}
	out, err := s.link.CellTypeLink(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCellTypeTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.conn.CellTypeTables(r.Context()))
}

func (s *Server) handleCellTypeTable(w http.ResponseWriter, r *http.Request) {
	var input conndto.CellTypeTableInput
	if !decode(w, r, &input) {
		return
	}
	out, err := s.conn.CellTypeTable(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"CapLedger/internal/domain"
	"CapLedger/internal/engine"
)

type createProjectRequest struct {
	Name             string `json:"name"`
	Type             string `json:"type,omitempty"`
	TargetAmount     string `json:"targetAmount"`
	MinInvestment    string `json:"minimumInvestment,omitempty"`
	MaxInvestment    string `json:"maximumInvestment,omitempty"`
	AssetAccountID   string `json:"assetAccountId,omitempty"`
	EquityAccountID  string `json:"equityAccountId,omitempty"`
	RevenueAccountID string `json:"revenueAccountId,omitempty"`
	DiscountRate     string `json:"discountRate,omitempty"`
	HurdleRate       string `json:"hurdleRate,omitempty"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := engine.CreateProjectInput{Name: req.Name, Type: req.Type}

	var err error
	if in.TargetAmount, err = parseAmount(req.TargetAmount, "targetAmount"); err != nil {
		writeError(w, err)
		return
	}
	if in.MinInvestment, err = parseOptionalAmount(req.MinInvestment, "minimumInvestment"); err != nil {
		writeError(w, err)
		return
	}
	if in.MaxInvestment, err = parseOptionalAmount(req.MaxInvestment, "maximumInvestment"); err != nil {
		writeError(w, err)
		return
	}
	if in.AssetAccountID, err = parseOptionalUUID(req.AssetAccountID, "assetAccountId"); err != nil {
		writeError(w, err)
		return
	}
	if in.EquityAccountID, err = parseOptionalUUID(req.EquityAccountID, "equityAccountId"); err != nil {
		writeError(w, err)
		return
	}
	if in.RevenueAccountID, err = parseOptionalUUID(req.RevenueAccountID, "revenueAccountId"); err != nil {
		writeError(w, err)
		return
	}
	if rate, err := parseOptionalAmount(req.DiscountRate, "discountRate"); err != nil {
		writeError(w, err)
		return
	} else if rate != nil {
		in.DiscountRate = *rate
	}
	if rate, err := parseOptionalAmount(req.HurdleRate, "hurdleRate"); err != nil {
		writeError(w, err)
		return
	} else if rate != nil {
		in.HurdleRate = *rate
	}

	project, err := s.engine.CreateProject(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	project, err := s.engine.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handlePublishProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	project, err := s.engine.PublishProject(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type closeProjectRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleCloseProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req closeProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	project, err := s.engine.CloseProject(r.Context(), id, domain.ProjectStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"CapLedger/internal/domain"
	"CapLedger/internal/engine"
)

type createAccountRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	NormalBalance string `json:"normalBalance,omitempty"`
	ParentID      string `json:"parentId,omitempty"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	parentID, err := parseOptionalUUID(req.ParentID, "parentId")
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := s.engine.CreateAccount(r.Context(), engine.CreateAccountInput{
		Code:          req.Code,
		Name:          req.Name,
		Type:          domain.AccountType(req.Type),
		NormalBalance: domain.NormalBalance(req.NormalBalance),
		ParentID:      parentID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	account, err := s.engine.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.engine.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

type createInvestorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleCreateInvestor(w http.ResponseWriter, r *http.Request) {
	var req createInvestorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	investor, err := s.engine.CreateInvestor(r.Context(), engine.CreateInvestorInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, investor)
}

func (s *Server) handleGetInvestor(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	investor, err := s.engine.GetInvestor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investor)
}

type setKYCRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetInvestorKYC(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req setKYCRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	investor, err := s.engine.SetInvestorKYC(r.Context(), id, domain.KYCStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investor)
}

type createShareClassRequest struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	AuthorizedShares *int64 `json:"authorizedShares,omitempty"`
	VotingRights     bool   `json:"votingRights"`
	DividendPriority int    `json:"dividendPriority"`
}

func (s *Server) handleCreateShareClass(w http.ResponseWriter, r *http.Request) {
	var req createShareClassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sc, err := s.engine.CreateShareClass(r.Context(), engine.CreateShareClassInput{
		Code:             req.Code,
		Name:             req.Name,
		AuthorizedShares: req.AuthorizedShares,
		VotingRights:     req.VotingRights,
		DividendPriority: req.DividendPriority,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleGetShareClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	sc, err := s.engine.GetShareClass(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

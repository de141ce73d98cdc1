package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"CapLedger/internal/engine"
)

type investRequest struct {
	InvestorID string `json:"investorId"`
	Amount     string `json:"amount"`
	Date       string `json:"date,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (s *Server) handleInvest(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req investRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	investorID, err := pathUUID(req.InvestorID)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	investment, err := s.engine.Invest(r.Context(), engine.InvestInput{
		ProjectID:  projectID,
		InvestorID: investorID,
		Amount:     amount,
		Date:       date,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, investment)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	investment, err := s.engine.GetInvestment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investment)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	investments, err := s.engine.ListInvestments(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investments)
}

type exitRequest struct {
	ActualReturnAmount string `json:"actualReturnAmount"`
	ExitDate           string `json:"exitDate,omitempty"`
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req exitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.ActualReturnAmount, "actualReturnAmount")
	if err != nil {
		writeError(w, err)
		return
	}
	exitDate, err := parseDate(req.ExitDate, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	investment, err := s.engine.Exit(r.Context(), id, amount, exitDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investment)
}

type createDistributionsRequest struct {
	TotalAmount string `json:"totalAmount"`
	Type        string `json:"type,omitempty"`
}

func (s *Server) handleCreateDistributions(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req createDistributionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	total, err := parseAmount(req.TotalAmount, "totalAmount")
	if err != nil {
		writeError(w, err)
		return
	}

	distributions, err := s.engine.CreateDistributions(r.Context(), projectID, total, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, distributions)
}

func (s *Server) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	distributions, err := s.engine.ListDistributions(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, distributions)
}

func (s *Server) handlePayDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	distribution, err := s.engine.MarkDistributionPaid(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, distribution)
}

type allotSharesRequest struct {
	InvestorID            string `json:"investorId"`
	ShareClassID          string `json:"shareClassId"`
	NumberOfShares        int64  `json:"numberOfShares"`
	IssuePricePerShare    string `json:"issuePricePerShare"`
	IssueDate             string `json:"issueDate,omitempty"`
	CashAccountID         string `json:"cashAccountId,omitempty"`
	ShareCapitalAccountID string `json:"shareCapitalAccountId,omitempty"`
}

func (s *Server) handleAllotShares(w http.ResponseWriter, r *http.Request) {
	var req allotSharesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := engine.AllotSharesInput{NumberOfShares: req.NumberOfShares}

	var err error
	if in.InvestorID, err = pathUUID(req.InvestorID); err != nil {
		writeError(w, err)
		return
	}
	if in.ShareClassID, err = pathUUID(req.ShareClassID); err != nil {
		writeError(w, err)
		return
	}
	if in.IssuePricePerShare, err = parseAmount(req.IssuePricePerShare, "issuePricePerShare"); err != nil {
		writeError(w, err)
		return
	}
	if in.IssueDate, err = parseDate(req.IssueDate, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	if in.CashAccountID, err = parseOptionalUUID(req.CashAccountID, "cashAccountId"); err != nil {
		writeError(w, err)
		return
	}
	if in.ShareCapitalAccountID, err = parseOptionalUUID(req.ShareCapitalAccountID, "shareCapitalAccountId"); err != nil {
		writeError(w, err)
		return
	}

	allocation, err := s.engine.AllotShares(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, allocation)
}

func (s *Server) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	allocation, err := s.engine.GetAllocation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allocation)
}

type transferSharesRequest struct {
	ToInvestorID  string `json:"toInvestorId"`
	TransferDate  string `json:"transferDate,omitempty"`
	PricePerShare string `json:"pricePerShare,omitempty"`
}

func (s *Server) handleTransferShares(w http.ResponseWriter, r *http.Request) {
	allocationID, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req transferSharesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := engine.TransferSharesInput{AllocationID: allocationID}
	if in.ToInvestorID, err = pathUUID(req.ToInvestorID); err != nil {
		writeError(w, err)
		return
	}
	if in.TransferDate, err = parseDate(req.TransferDate, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	if in.PricePerShare, err = parseOptionalAmount(req.PricePerShare, "pricePerShare"); err != nil {
		writeError(w, err)
		return
	}

	transfer, err := s.engine.TransferShares(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transfer)
}

type createCapitalCallRequest struct {
	ShareClassID   string `json:"shareClassId"`
	AmountPerShare string `json:"amountPerShare"`
	DueDate        string `json:"dueDate"`
}

func (s *Server) handleCreateCapitalCall(w http.ResponseWriter, r *http.Request) {
	var req createCapitalCallRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	shareClassID, err := pathUUID(req.ShareClassID)
	if err != nil {
		writeError(w, err)
		return
	}
	amountPerShare, err := parseAmount(req.AmountPerShare, "amountPerShare")
	if err != nil {
		writeError(w, err)
		return
	}
	dueDate, err := parseDate(req.DueDate, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	call, err := s.engine.CreateCapitalCall(r.Context(), shareClassID, amountPerShare, dueDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

func (s *Server) handleGetCapitalCall(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	call, err := s.engine.GetCapitalCall(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

func (s *Server) handleIssueCapitalCall(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	call, err := s.engine.IssueCapitalCall(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

func (s *Server) handleCancelCapitalCall(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	call, err := s.engine.CancelCapitalCall(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

func (s *Server) handleListCallPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	payments, err := s.engine.ListCallPayments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	payment, err := s.engine.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

type payPaymentRequest struct {
	CashAccountID   string `json:"cashAccountId,omitempty"`
	ContraAccountID string `json:"contraAccountId,omitempty"`
	Reference       string `json:"reference,omitempty"`
}

func (s *Server) handlePayPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req payPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := engine.MarkPaymentPaidInput{PaymentID: id, Reference: req.Reference}
	if in.CashAccountID, err = parseOptionalUUID(req.CashAccountID, "cashAccountId"); err != nil {
		writeError(w, err)
		return
	}
	if in.ContraAccountID, err = parseOptionalUUID(req.ContraAccountID, "contraAccountId"); err != nil {
		writeError(w, err)
		return
	}

	payment, err := s.engine.MarkPaymentPaid(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// reportEpoch is the default lower bound when ?from is omitted.
var reportEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

func (s *Server) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportPeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.reports.TrialBalance(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportPeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.reports.ProfitAndLoss(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDate(r.URL.Query().Get("asOf"), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.reports.BalanceSheet(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleProjectPerformance(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathUUID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.reports.ProjectPerformance(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func reportPeriod(r *http.Request) (time.Time, time.Time, error) {
	from, err := parseDate(r.URL.Query().Get("from"), reportEpoch)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(r.URL.Query().Get("to"), time.Now().UTC())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

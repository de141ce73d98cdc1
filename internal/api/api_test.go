package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"CapLedger/internal/api"
	"CapLedger/internal/engine"
	"CapLedger/internal/events"
	"CapLedger/internal/ledger"
	"CapLedger/internal/observability"
	"CapLedger/internal/reporting"
	"CapLedger/internal/storage/memory"
)

type testAPI struct {
	handler http.Handler
	health  *observability.HealthChecker
}

func newTestAPI() *testAPI {
	store := memory.NewStore()
	poster := ledger.NewPoster(zerolog.Nop(), nil)
	eng := engine.New(store, poster, events.NopPublisher{}, zerolog.Nop(), nil)
	reports := reporting.NewService(store, zerolog.Nop())
	health := observability.NewHealthChecker()
	server := api.NewServer(eng, reports, health, zerolog.Nop())
	return &testAPI{handler: server.Handler(), health: health}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, rec, &envelope)
	return envelope.Error.Code
}

// create posts body to path, asserts 201 and returns the new resource's id.
func (a *testAPI) create(t *testing.T, path string, body any) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, path, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s = %d, want 201: %s", path, rec.Code, rec.Body.String())
	}
	var resource struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &resource)
	return resource.ID
}

func (a *testAPI) approvedInvestor(t *testing.T, email string) string {
	t.Helper()
	id := a.create(t, "/v1/investors", map[string]any{"name": "Investor", "email": email})
	rec := a.do(t, http.MethodPut, "/v1/investors/"+id+"/kyc", map[string]any{"status": "approved"})
	if rec.Code != http.StatusOK {
		t.Fatalf("kyc = %d: %s", rec.Code, rec.Body.String())
	}
	return id
}

func (a *testAPI) fundingProject(t *testing.T, target string) string {
	t.Helper()
	id := a.create(t, "/v1/projects", map[string]any{"name": "Fund I", "targetAmount": target})
	rec := a.do(t, http.MethodPost, "/v1/projects/"+id+"/publish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish = %d: %s", rec.Code, rec.Body.String())
	}
	return id
}

// ============================================================================
// Test: invest over HTTP
// ============================================================================

func TestInvestEndpoint(t *testing.T) {
	a := newTestAPI()
	investorID := a.approvedInvestor(t, "alice@example.com")
	projectID := a.fundingProject(t, "100000")

	rec := a.do(t, http.MethodPost, "/v1/projects/"+projectID+"/investments", map[string]any{
		"investorId": investorID,
		"amount":     "25000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("invest = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var investment struct {
		ID               string `json:"id"`
		ProjectID        string `json:"projectId"`
		Amount           string `json:"amount"`
		EquityPercentage string `json:"equityPercentage"`
		Status           string `json:"status"`
	}
	decodeBody(t, rec, &investment)

	if investment.ProjectID != projectID {
		t.Errorf("projectId = %s, want %s", investment.ProjectID, projectID)
	}
	if investment.Amount != "25000" {
		t.Errorf("amount = %q, want \"25000\" (decimal string)", investment.Amount)
	}
	if investment.EquityPercentage != "0.25" {
		t.Errorf("equityPercentage = %q, want \"0.25\"", investment.EquityPercentage)
	}
	if investment.Status != "active" {
		t.Errorf("status = %s, want active", investment.Status)
	}

	// The raised amount shows up on the project resource.
	rec = a.do(t, http.MethodGet, "/v1/projects/"+projectID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get project = %d", rec.Code)
	}
	var project struct {
		RaisedAmount string `json:"raisedAmount"`
	}
	decodeBody(t, rec, &project)
	if project.RaisedAmount != "25000" {
		t.Errorf("raisedAmount = %q, want \"25000\"", project.RaisedAmount)
	}
}

// ============================================================================
// Test: error mapping
// ============================================================================

func TestErrorMapping(t *testing.T) {
	a := newTestAPI()
	investorID := a.approvedInvestor(t, "bob@example.com")
	projectID := a.fundingProject(t, "1000")

	t.Run("unknown resource is 404", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/v1/accounts/"+uuid.NewString(), nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if code := errorCode(t, rec); code != "NOT_FOUND" {
			t.Errorf("error code = %s, want NOT_FOUND", code)
		}
	})

	t.Run("malformed amount is 400", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/projects/"+projectID+"/investments", map[string]any{
			"investorId": investorID,
			"amount":     "not-a-number",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "BAD_REQUEST" {
			t.Errorf("error code = %s, want BAD_REQUEST", code)
		}
	})

	t.Run("unknown JSON field is 400", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/investors", map[string]any{
			"name": "x", "email": "x@example.com", "bogus": true,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid state is 409", func(t *testing.T) {
		// Publishing an already-funding project violates the lifecycle.
		rec := a.do(t, http.MethodPost, "/v1/projects/"+projectID+"/publish", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "CONFLICT" {
			t.Errorf("error code = %s, want CONFLICT", code)
		}
	})

	t.Run("malformed path id is 400", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/v1/projects/not-a-uuid", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

// ============================================================================
// Test: reports over HTTP
// ============================================================================

func TestTrialBalanceEndpoint(t *testing.T) {
	a := newTestAPI()

	cashID := a.create(t, "/v1/accounts", map[string]any{"code": "1000", "name": "Cash", "type": "asset"})
	equityID := a.create(t, "/v1/accounts", map[string]any{"code": "3000", "name": "Capital", "type": "equity"})

	investorID := a.approvedInvestor(t, "carol@example.com")
	projectID := a.create(t, "/v1/projects", map[string]any{
		"name":            "Fund I",
		"targetAmount":    "50000",
		"assetAccountId":  cashID,
		"equityAccountId": equityID,
	})
	if rec := a.do(t, http.MethodPost, "/v1/projects/"+projectID+"/publish", nil); rec.Code != http.StatusOK {
		t.Fatalf("publish = %d", rec.Code)
	}
	rec := a.do(t, http.MethodPost, "/v1/projects/"+projectID+"/investments", map[string]any{
		"investorId": investorID,
		"amount":     "50000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("invest = %d: %s", rec.Code, rec.Body.String())
	}

	rec = a.do(t, http.MethodGet, "/v1/reports/trial-balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trial balance = %d: %s", rec.Code, rec.Body.String())
	}
	var report struct {
		Balanced     bool   `json:"balanced"`
		TotalDebits  string `json:"totalDebits"`
		TotalCredits string `json:"totalCredits"`
	}
	decodeBody(t, rec, &report)
	if !report.Balanced {
		t.Error("trial balance should balance")
	}
	if report.TotalDebits != "50000" || report.TotalCredits != "50000" {
		t.Errorf("totals = %s/%s, want 50000 both sides", report.TotalDebits, report.TotalCredits)
	}
}

// ============================================================================
// Test: health endpoints
// ============================================================================

func TestReadiness(t *testing.T) {
	a := newTestAPI()

	if rec := a.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before ready = %d, want 503", rec.Code)
	}
	a.health.SetReady(true)
	if rec := a.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz after ready = %d, want 200", rec.Code)
	}
	if rec := a.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
}

// ============================================================================
// Test: share allotment
// ============================================================================

func TestAllotSharesEndpoint_PostsJournalEntry(t *testing.T) {
	a := newTestAPI()

	cashID := a.create(t, "/v1/accounts", map[string]any{"code": "1000", "name": "Cash", "type": "asset"})
	equityID := a.create(t, "/v1/accounts", map[string]any{"code": "3000", "name": "Capital", "type": "equity"})
	investorID := a.approvedInvestor(t, "dave@example.com")
	classID := a.create(t, "/v1/share-classes", map[string]any{"code": "ORD", "name": "Ordinary"})

	body, _ := json.Marshal(map[string]any{
		"investorId":            investorID,
		"shareClassId":          classID,
		"numberOfShares":        100,
		"issuePricePerShare":    "10",
		"cashAccountId":         cashID,
		"shareCapitalAccountId": equityID,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/allocations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "ops@example.com")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("allot = %d: %s", rec.Code, rec.Body.String())
	}
	var allocation struct {
		JournalEntryID string `json:"journalEntryId"`
	}
	decodeBody(t, rec, &allocation)
	if allocation.JournalEntryID == "" {
		t.Fatal("allotment with accounts configured should post a journal entry")
	}

	rec2 := a.do(t, http.MethodGet, fmt.Sprintf("/v1/share-classes/%s", classID), nil)
	if rec2.Code != http.StatusOK {
		t.Fatalf("get class = %d", rec2.Code)
	}
	var class struct {
		IssuedShares int64 `json:"issuedShares"`
	}
	decodeBody(t, rec2, &class)
	if class.IssuedShares != 100 {
		t.Errorf("issuedShares = %d, want 100", class.IssuedShares)
	}
}

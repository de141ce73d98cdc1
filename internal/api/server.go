// Package api exposes the ledger and capital engine over HTTP. Monetary
// amounts travel as decimal strings; dates accept RFC 3339 or bare
// YYYY-MM-DD. Domain error categories map onto 400/404/409.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"CapLedger/internal/engine"
	"CapLedger/internal/identity"
	"CapLedger/internal/observability"
	"CapLedger/internal/reporting"
)

// Server routes HTTP requests to the engine and reporting services.
type Server struct {
	engine  *engine.Engine
	reports *reporting.Service
	health  *observability.HealthChecker
	log     zerolog.Logger
}

func NewServer(eng *engine.Engine, reports *reporting.Service, health *observability.HealthChecker, log zerolog.Logger) *Server {
	return &Server{engine: eng, reports: reports, health: health, log: log}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(actorMiddleware)

	r.Get("/healthz", s.health.LivenessHandler)
	r.Get("/readyz", s.health.ReadinessHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", s.handleCreateAccount)
			r.Get("/", s.handleListAccounts)
			r.Get("/{id}", s.handleGetAccount)
		})

		r.Route("/investors", func(r chi.Router) {
			r.Post("/", s.handleCreateInvestor)
			r.Get("/{id}", s.handleGetInvestor)
			r.Put("/{id}/kyc", s.handleSetInvestorKYC)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/{id}", s.handleGetProject)
			r.Post("/{id}/publish", s.handlePublishProject)
			r.Post("/{id}/close", s.handleCloseProject)
			r.Post("/{id}/investments", s.handleInvest)
			r.Get("/{id}/investments", s.handleListInvestments)
			r.Post("/{id}/distributions", s.handleCreateDistributions)
			r.Get("/{id}/distributions", s.handleListDistributions)
			r.Get("/{id}/performance", s.handleProjectPerformance)
		})

		r.Route("/investments", func(r chi.Router) {
			r.Get("/{id}", s.handleGetInvestment)
			r.Post("/{id}/exit", s.handleExit)
		})

		r.Post("/distributions/{id}/pay", s.handlePayDistribution)

		r.Route("/share-classes", func(r chi.Router) {
			r.Post("/", s.handleCreateShareClass)
			r.Get("/{id}", s.handleGetShareClass)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Post("/", s.handleAllotShares)
			r.Get("/{id}", s.handleGetAllocation)
			r.Post("/{id}/transfer", s.handleTransferShares)
		})

		r.Route("/capital-calls", func(r chi.Router) {
			r.Post("/", s.handleCreateCapitalCall)
			r.Get("/{id}", s.handleGetCapitalCall)
			r.Post("/{id}/issue", s.handleIssueCapitalCall)
			r.Post("/{id}/cancel", s.handleCancelCapitalCall)
			r.Get("/{id}/payments", s.handleListCallPayments)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/{id}", s.handleGetPayment)
			r.Post("/{id}/pay", s.handlePayPayment)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", s.handleTrialBalance)
			r.Get("/profit-and-loss", s.handleProfitAndLoss)
			r.Get("/balance-sheet", s.handleBalanceSheet)
		})
	})

	return r
}

// actorMiddleware threads the caller identity from the X-Actor-ID header into
// the request context; absent callers fall back to the system actor.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get("X-Actor-ID"); actor != "" {
			r = r.WithContext(identity.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

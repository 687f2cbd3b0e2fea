package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"subscription-billing/internal/usecase"
)

// Server is the thin HTTP glue: webhook intake, admin API, health and
// metrics. All business rules live in the use cases.
type Server struct {
	planUC      *usecase.PlanUseCase
	subUC       *usecase.SubscriptionUseCase
	ledgerUC    *usecase.LedgerUseCase
	statsUC     *usecase.StatsUseCase
	reconcileUC *usecase.ReconcileUseCase
	userUC      *usecase.UserUseCase
	accessUC    *usecase.AccessUseCase
	auth        *AuthManager
	log         *zerolog.Logger

	srv *http.Server
}

func NewServer(planUC *usecase.PlanUseCase, subUC *usecase.SubscriptionUseCase, ledgerUC *usecase.LedgerUseCase, statsUC *usecase.StatsUseCase, reconcileUC *usecase.ReconcileUseCase, userUC *usecase.UserUseCase, accessUC *usecase.AccessUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		planUC:      planUC,
		subUC:       subUC,
		ledgerUC:    ledgerUC,
		statsUC:     statsUC,
		reconcileUC: reconcileUC,
		userUC:      userUC,
		accessUC:    accessUC,
		auth:        auth,
		log:         &l,
	}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Post("/ipn", s.handleIPN)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/token", s.handleAuthToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.RequireAdmin)
		r.Get("/plans", s.handlePlanList)
		r.Post("/plans", s.handlePlanCreate)
		r.Put("/plans/{id}", s.handlePlanUpdate)
		r.Delete("/plans/{id}", s.handlePlanDelete)
		r.Post("/users", s.handleUserRegister)
		r.Get("/users/{id}", s.handleUserGet)
		r.Get("/users/{id}/permissions", s.handleUserPermissions)
		r.Get("/users/{id}/subscription", s.handleUserSubscription)
		r.Get("/users/{id}/ledger", s.handleUserLedger)
		r.Get("/ledger", s.handleLedgerRecent)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bicho/application"
	"bicho/domain/entities"
	"bicho/domain/interfaces"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Canceller cancels wagers
type Canceller interface {
	Cancel(ctx context.Context, wagerID int64) (*interfaces.RefundResult, error)
}

// Settler settles one slot synchronously
type Settler interface {
	Settle(ctx context.Context, key entities.SlotKey) (*application.SettlementSummary, error)
}

// HealthFunc reports whether a dependency is reachable
type HealthFunc func(ctx context.Context) error

// Server exposes cancellation, settlement and balance endpoints
type Server struct {
	canceller Canceller
	settler   Settler
	balances  interfaces.BalanceService
	health    HealthFunc
}

// NewServer creates the API server. health may be nil.
func NewServer(canceller Canceller, settler Settler, balances interfaces.BalanceService, health HealthFunc) *Server {
	return &Server{
		canceller: canceller,
		settler:   settler,
		balances:  balances,
		health:    health,
	}
}

// Router returns the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/wagers/{id}/cancel", s.cancelWager)
		r.Get("/wagers/{id}/ledger", s.getWagerLedger)
		r.Post("/settlements", s.settleSlot)
		r.Get("/accounts/{id}/balance", s.getBalance)
		r.Get("/accounts/{id}/ledger", s.getLedger)
		r.Get("/accounts/{id}/reconciliation", s.reconcile)
		r.Get("/groups", s.listGroups)
	})
	return r
}

// Start serves the router on port in the background
func (s *Server) Start(port string) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("API server stopped")
		}
	}()

	log.WithField("port", port).Info("API server listening")
	return srv
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := s.health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start),
			"requestID": middleware.GetReqID(r.Context()),
		}).Debug("Handled request")
	})
}

// writeJSON serializes v as the response body with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

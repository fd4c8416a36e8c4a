package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"tempest/internal/domain"
	"tempest/internal/engine"
	"tempest/internal/oms"
	"tempest/internal/risk"
)

// StatusServer serves the trading core's HTTP API. All endpoints are
// read-only except /api/breaker/reset, which clears a tripped breaker.
type StatusServer struct {
	mode    domain.TradingMode
	orders  *oms.Store
	breaker *risk.CircuitBreaker
	log     *slog.Logger

	mu      sync.Mutex
	lastRun *engine.RunResult
}

// NewStatusServer creates a new status HTTP server.
func NewStatusServer(mode domain.TradingMode, orders *oms.Store, breaker *risk.CircuitBreaker, log *slog.Logger) *StatusServer {
	return &StatusServer{
		mode:    mode,
		orders:  orders,
		breaker: breaker,
		log:     log,
	}
}

// SetLastRun records the most recent orchestrator run for /api/status.
func (s *StatusServer) SetLastRun(res engine.RunResult) {
	s.mu.Lock()
	s.lastRun = &res
	s.mu.Unlock()
}

// RegisterRoutes registers all API routes on the given mux.
func (s *StatusServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/orders", s.handleOrders)
	mux.HandleFunc("GET /api/orders/open", s.handleOpenOrders)
	mux.HandleFunc("GET /api/breaker", s.handleBreaker)
	mux.HandleFunc("POST /api/breaker/reset", s.handleBreakerReset)
}

// Handler returns an http.Handler with CORS middleware.
func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	paused, reason := s.breaker.IsPaused()
	open := s.openOrders()

	resp := StatusResponse{
		Mode:         string(s.mode),
		OpenOrders:   len(open),
		OpenNotional: s.orders.OpenNotional(),
		Breaker:      BreakerResponse{Paused: paused, Reason: reason},
	}

	s.mu.Lock()
	if s.lastRun != nil {
		resp.LastRun = &RunSummaryJSON{
			StartedAt:        s.lastRun.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			DurationMs:       s.lastRun.Duration.Milliseconds(),
			TotalEntities:    s.lastRun.TotalEntities,
			CitiesSucceeded:  s.lastRun.CitiesSucceeded,
			CitiesFailed:     s.lastRun.CitiesFailed,
			SignalsGenerated: s.lastRun.SignalsGenerated,
			OrdersSubmitted:  s.lastRun.OrdersSubmitted,
		}
	}
	s.mu.Unlock()

	writeJSON(w, resp)
}

func (s *StatusServer) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.orders.GetAllOrders()
	out := make([]OrderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderJSON(o))
	}
	writeJSON(w, OrdersResponse{Count: len(out), Orders: out})
}

func (s *StatusServer) handleOpenOrders(w http.ResponseWriter, r *http.Request) {
	open := s.openOrders()
	out := make([]OrderJSON, 0, len(open))
	for _, o := range open {
		out = append(out, toOrderJSON(o))
	}
	writeJSON(w, OrdersResponse{Count: len(out), Orders: out})
}

func (s *StatusServer) handleBreaker(w http.ResponseWriter, r *http.Request) {
	paused, reason := s.breaker.IsPaused()
	writeJSON(w, BreakerResponse{Paused: paused, Reason: reason})
}

func (s *StatusServer) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	s.breaker.ResetPause()
	s.log.Warn("circuit breaker reset via API", "remote", r.RemoteAddr)
	writeJSON(w, BreakerResponse{Paused: false})
}

func (s *StatusServer) openOrders() []domain.Order {
	var open []domain.Order
	for _, o := range s.orders.GetAllOrders() {
		if !o.Status.IsTerminal() {
			open = append(open, o)
		}
	}
	return open
}

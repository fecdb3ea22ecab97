package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"honoraires/internal/log"
	"honoraires/internal/middleware/ratelimit"
	"honoraires/internal/middleware/security"
	"honoraires/internal/middleware/trace"
	"honoraires/internal/services"
)

// Config tunes the API server around the ledger service.
type Config struct {
	Logger            *log.Logger
	RequestsPerMinute int
	TrustedProxies    []string
}

type Server struct {
	http.Server
	svc      *services.LedgerService
	logger   *log.Logger
	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	clientIP *security.ClientIPResolver

	shutdownOnce sync.Once
}

// NewServer wires the ledger API routes behind tracing, request logging and
// security headers. Mutating routes are rate limited per client address.
func NewServer(addr string, svc *services.LedgerService, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		svc:      svc,
		logger:   logger,
		tracer:   trace.NewMiddleware(),
		clientIP: security.NewClientIPResolver(),
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.clientIP.AddTrustedProxy(cidr); err != nil {
			slog.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	rl := ratelimit.DefaultConfig()
	if cfg.RequestsPerMinute > 0 {
		rl.RequestsPerMinute = cfg.RequestsPerMinute
	}
	s.limiter = ratelimit.NewLimiter(rl)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.Middleware(logger, trace.GetRequestID)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	write := s.limiter.Middleware(s.clientIP.ExtractClientIP, s.handleRateLimited)
	post := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, write(h)) }

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/period", s.handlePeriod)

	mux.HandleFunc("GET /api/clients", s.handleListClients)
	post("POST /api/clients", s.handleCreateClient)
	mux.HandleFunc("GET /api/clients/{id}", s.handleGetClient)
	mux.HandleFunc("GET /api/clients/{id}/balances", s.handleBalances)
	mux.HandleFunc("GET /api/clients/{id}/carried", s.handleCarried)
	mux.HandleFunc("GET /api/clients/{id}/charges", s.handleListCharges)
	post("POST /api/clients/{id}/charges", s.handleRegisterCharge)
	post("POST /api/clients/{id}/advances", s.handleAddAdvance)
	post("DELETE /api/clients/{id}/charges/{year}/{month}", s.handleRemoveMonth)

	mux.HandleFunc("GET /api/statements", s.handleStatement)

	post("POST /api/fees", s.handleRecordFee)
	post("PUT /api/fees/{id}", s.handleAmendFee)
	mux.HandleFunc("GET /api/fees/{id}/receipts", s.handleListReceipts)
	post("POST /api/fees/{id}/receipts", s.handlePrintReceipt)

	post("POST /api/expenses", s.handleRecordExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	post("POST /api/expenses/{id}/assign-office", s.handleAssignOffice)
	post("POST /api/expenses/{id}/return-client", s.handleReturnClient)
	post("DELETE /api/expenses/{id}", s.handleDeleteExpense)
}

// Metrics returns the request counters collected by the tracing middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server and the limiter cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ready(ctx); err != nil {
		log.LogError(ctx, "Readiness check failed", err, log.ErrorTypeDatabase, log.OpRead, nil)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", RequestID: trace.GetRequestID(r.Context())})
}

package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/middleware/ratelimit"
	"spendtrack/internal/services"
)

// TransactionService is the application surface the handlers call.
type TransactionService interface {
	AddFromTranscript(ctx context.Context, text string) (core.Transaction, error)
	AddFromReceipt(ctx context.Context, img []byte) (core.Transaction, error)
	AddManual(ctx context.Context, e services.ManualEntry) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f services.Filter) ([]core.Transaction, error)
	Summarize(ctx context.Context, f services.Filter) (core.Summary, error)
	Budgets(ctx context.Context) (core.BudgetMap, error)
	ReplaceBudgets(ctx context.Context, b core.BudgetMap) (core.BudgetMap, error)
	Report(ctx context.Context, ref time.Time) (core.SpendingReport, error)
}

// ReadinessCheck reports whether the server's dependencies are usable.
type ReadinessCheck func(ctx context.Context) error

// Options configures a Server. Zero values pick defaults.
type Options struct {
	RateLimitPerMinute int
	MaxUploadBytes     int64
	Ready              ReadinessCheck
	Logger             *applog.Logger
	Clock              func() time.Time
}

type Server struct {
	http.Server
	svc            TransactionService
	ready          ReadinessCheck
	limiter        *ratelimit.Limiter
	logger         *applog.Logger
	maxUploadBytes int64
	now            func() time.Time
}

// NewServer builds the API server listening on addr.
func NewServer(addr string, svc TransactionService, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Logger == nil {
		opts.Logger = applog.Wrap(nil, applog.ComponentHTTP)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Ready == nil {
		opts.Ready = func(context.Context) error { return nil }
	}

	s := &Server{
		svc:            svc,
		ready:          opts.Ready,
		limiter:        ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		logger:         opts.Logger,
		maxUploadBytes: opts.MaxUploadBytes,
		now:            opts.Clock,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware)
	r.Use(applog.AccessLog(extractClientIP))
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Get("/summary", s.handleSummary)
		r.Get("/budgets", s.handleGetBudgets)
		r.Get("/report", s.handleReport)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
				TooManyRequestsError().Write(w)
			}))
			r.Post("/transactions", s.handleCreateManual)
			r.Post("/transactions/transcript", s.handleCreateFromTranscript)
			r.Post("/transactions/receipt", s.handleCreateFromReceipt)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Put("/budgets", s.handlePutBudgets)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})
	return r
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// trustedProxies may set forwarding headers.
var trustedProxies = []*net.IPNet{
	mustCIDR("127.0.0.0/8"),
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
	mustCIDR("::1/128"),
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the caller's IP, honouring X-Forwarded-For and
// X-Real-IP only when the direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}
	parsed := net.ParseIP(directIP)
	if parsed == nil || !isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	return directIP
}

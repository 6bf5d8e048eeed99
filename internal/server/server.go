// Package server exposes the intake and back-office API over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goahttp "goa.design/goa/v3/http"

	"rotorcharter/internal/config"
	"rotorcharter/internal/domain"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/metrics"
	"rotorcharter/internal/ratelimit"
	"rotorcharter/internal/services"
)

// Server routes API requests to the services.
type Server struct {
	contacts RecordAPI[domain.ContactRecord]
	quotes   RecordAPI[domain.QuoteRecord]
	auth     Authenticator
	health   *services.HealthService
	limiter  ratelimit.Limiter
	ips      clientIPs
	cors     *config.CORSConfig
	debug    bool
	log      *slog.Logger
}

// Deps are the collaborators of a Server. Limiter may be nil to disable
// submission throttling.
type Deps struct {
	Contacts RecordAPI[domain.ContactRecord]
	Quotes   RecordAPI[domain.QuoteRecord]
	Auth     Authenticator
	Health   *services.HealthService
	Limiter  ratelimit.Limiter
}

// New creates a Server.
func New(cfg *config.Config, deps Deps, log *slog.Logger) *Server {
	log = logging.Component(log, "http")
	proxies, err := cfg.RateLimit.ProxyPrefixes()
	if err != nil {
		log.Warn("ignoring trusted proxies", "error", err)
		proxies = nil
	}
	return &Server{
		contacts: deps.Contacts,
		quotes:   deps.Quotes,
		auth:     deps.Auth,
		health:   deps.Health,
		limiter:  deps.Limiter,
		ips:      clientIPs{trusted: proxies},
		cors:     &cfg.CORS,
		debug:    cfg.App.Debug,
		log:      log,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := goahttp.NewMuxer()

	mux.Handle(http.MethodGet, "/health", s.healthCheck)
	mux.Handle(http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP)

	mux.Handle(http.MethodPost, "/api/auth/login", s.limited(s.login))
	mux.Handle(http.MethodGet, "/api/auth/me", s.guard(anyOperator, s.me))

	mountRecords(s, mux, "/api/contacts", "Contact", s.contacts, "/api/contact")
	mountRecords(s, mux, "/api/quotes", "Quote", s.quotes)

	return Chain(
		securityHeaders(s.debug),
		cors(s.cors, s.debug),
		requestIDs(),
		requestLogging(s.log, s.ips),
		metrics.PrometheusMiddleware,
		recovery(s.log),
	)(mux)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	result := s.health.Check(r.Context())
	status := http.StatusOK
	if !result.Healthy() {
		status = http.StatusServiceUnavailable
	}
	s.respond(r.Context(), w, status, result)
}

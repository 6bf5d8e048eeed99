package server

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	httpmw "goa.design/goa/v3/http/middleware"
	goamw "goa.design/goa/v3/middleware"

	"rotorcharter/internal/config"
	"rotorcharter/internal/metrics"
	apperrors "rotorcharter/pkg/errors"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// securityHeaders adds security headers to responses
func securityHeaders(debugMode bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			// HSTS only behind TLS in production
			if !debugMode && r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cors applies the configured origin policy and answers preflight requests.
func cors(cfg *config.CORSConfig, debugMode bool) Middleware {
	wildcard := len(cfg.AllowedOrigins) == 0 || cfg.AllowedOrigins[0] == "*"
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && !wildcard && !debugMode && !allowed[origin] {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			switch {
			case origin != "":
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			case debugMode:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Expose-Headers", "Content-Type, Authorization, X-Request-ID, Retry-After")
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			// Credentials only go to origins on the allow list.
			if origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestIDs assigns every request an id (honouring X-Request-ID) and echoes
// it back to the client. The Accept header is not copied into the context,
// which keeps goa's response encoder on JSON.
func requestIDs() Middleware {
	assign := httpmw.RequestID(httpmw.UseXRequestIDHeaderOption(true))
	return func(next http.Handler) http.Handler {
		return assign(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := requestID(r.Context()); id != "" {
				w.Header().Set("X-Request-ID", id)
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(goamw.RequestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging logs every request except health probes.
func requestLogging(log *slog.Logger, ips clientIPs) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			if wrapped.status >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if wrapped.status >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			log.Log(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", ips.of(r)),
				slog.String("request_id", requestID(r.Context())),
			)
		})
	}
}

// recovery turns a handler panic into a 500 response.
func recovery(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("request_id", requestID(r.Context())),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"success":false,"error":"Internal server error"}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// limited rejects public submissions from a client that exceeded its quota.
// A limiter backend failure lets the request through.
func (s *Server) limited(h http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ip := s.ips.of(r)
		d, err := s.limiter.Allow(r.Context(), ip)
		if err != nil {
			s.log.Warn("rate limiter unavailable", "error", err)
			h(w, r)
			return
		}
		if !d.Allowed {
			metrics.RecordRateLimited()
			s.log.Info("submission rate limited", "remote", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			s.fail(r.Context(), w, apperrors.New(apperrors.ErrCodeRateLimited,
				fmt.Sprintf("Too many submissions, retry in %s", d.RetryAfter.Round(time.Second))))
			return
		}
		h(w, r)
	}
}

// clientIPs resolves the address a request is attributed to. The peer is
// the client unless it is a trusted proxy, in which case the right-most
// X-Forwarded-For hop that is not a trusted proxy is.
type clientIPs struct {
	trusted []netip.Prefix
}

func (c clientIPs) of(r *http.Request) string {
	peer := remoteHost(r)
	if !c.trusts(peer) {
		return peer
	}
	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(v, ",")...)
	}
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = addr.Unmap().String()
		if !c.trusts(client) {
			break
		}
	}
	return client
}

func (c clientIPs) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

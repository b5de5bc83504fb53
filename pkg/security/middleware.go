package security

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"vizzydb/pkg/logger"
)

// SecConfig carries the request-gate settings: CORS origins, per-caller
// rate limits and the accepted API keys. An empty APIKeys set disables
// key checks (single-tenant local deployments).
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	APIKeys        map[string]struct{}
}

// Middleware wraps an API handler with CORS, API-key and rate-limit
// checks. Health and metrics endpoints stay reachable without a key so
// probes and scrapers work.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if isOpenPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			key, hasKey := apiKey(r)
			if len(cfg.APIKeys) > 0 {
				if _, ok := cfg.APIKeys[key]; !ok {
					logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr, "has_api_key", hasKey)
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}

			// rate limit per API key, falling back to client IP
			id := key
			if id == "" {
				id = clientIP(r)
			}
			if !limiters.Allow(id) {
				logger.Warn("rate_limited", "path", r.URL.Path, "has_api_key", hasKey)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isOpenPath(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return r.URL.Path == "/healthz" || r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/docs/")
}

func apiKey(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:]), true
	}
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k, true
	}
	return "", false
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg SecConfig
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.cfg.RPS
	if rps <= 0 {
		rps = 25
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = 50
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func do(t *testing.T, h http.Handler, method, path string, mod func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_APIKeys(t *testing.T) {
	h := Middleware(SecConfig{APIKeys: map[string]struct{}{"good": {}}})(okHandler())

	if rec := do(t, h, http.MethodPost, "/v1/exports", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/exports", func(r *http.Request) {
		r.Header.Set("X-API-Key", "bad")
	}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/exports", func(r *http.Request) {
		r.Header.Set("X-API-Key", "good")
	}); rec.Code != http.StatusOK {
		t.Fatalf("valid key: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/exports", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer good")
	}); rec.Code != http.StatusOK {
		t.Fatalf("bearer key: %d", rec.Code)
	}
}

func TestMiddleware_OpenPaths(t *testing.T) {
	h := Middleware(SecConfig{APIKeys: map[string]struct{}{"good": {}}})(okHandler())

	for _, path := range []string{"/healthz", "/metrics", "/docs/index.html"} {
		if rec := do(t, h, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Fatalf("open path %s blocked: %d", path, rec.Code)
		}
	}
	// open paths are GET only
	if rec := do(t, h, http.MethodPost, "/healthz", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST to open path allowed: %d", rec.Code)
	}
}

func TestMiddleware_NoKeysConfigured(t *testing.T) {
	h := Middleware(SecConfig{})(okHandler())
	if rec := do(t, h, http.MethodPost, "/v1/exports", nil); rec.Code != http.StatusOK {
		t.Fatalf("keyless deployment rejected request: %d", rec.Code)
	}
}

func TestMiddleware_CORS(t *testing.T) {
	h := Middleware(SecConfig{AllowedOrigins: []string{"https://app.example.com"}})(okHandler())

	rec := do(t, h, http.MethodOptions, "/v1/exports", func(r *http.Request) {
		r.Header.Set("Origin", "https://app.example.com")
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("allowed origin not echoed: %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	rec = do(t, h, http.MethodGet, "/healthz", func(r *http.Request) {
		r.Header.Set("Origin", "https://evil.example.com")
	})
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("disallowed origin echoed")
	}
}

func TestMiddleware_RateLimit(t *testing.T) {
	h := Middleware(SecConfig{RPS: 1, Burst: 2})(okHandler())

	mod := func(r *http.Request) { r.RemoteAddr = "10.0.0.1:1234" }
	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/v1/exports", mod); rec.Code != http.StatusOK {
			t.Fatalf("request %d within burst rejected: %d", i, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodPost, "/v1/exports", mod); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("burst overflow allowed: %d", rec.Code)
	}

	// a different caller has its own bucket
	if rec := do(t, h, http.MethodPost, "/v1/exports", func(r *http.Request) {
		r.RemoteAddr = "10.0.0.2:1234"
	}); rec.Code != http.StatusOK {
		t.Fatalf("independent caller throttled: %d", rec.Code)
	}
}

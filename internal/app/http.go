package app

import (
	"context"
	"net/http"
	"time"

	"vizzydb/pkg/banner"
	"vizzydb/pkg/store"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner(source string) {
	verStr := a.version
	if verStr == "" {
		verStr = "dev"
	}
	banner.Print(a.cfg, a.addr, a.dbPath, source, verStr)
}

// readyzHandler probes the record store with a cheap read so load
// balancers stop routing to an instance whose database is gone.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := a.rs.ReadAll(store.KeyExports); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
}

// startHTTP builds the handler, starts the HTTP server in a goroutine and
// returns a channel that will contain any server error.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	mux := http.NewServeMux()
	mux.HandleFunc("/readyz", a.readyzHandler)
	mux.Handle("/", a.Handler())

	srv := &http.Server{Addr: a.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	go func() {
		<-ctx.Done()
		shctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shctx)
	}()
	return errCh
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/joho/godotenv"

	"vizzydb/internal/retention"
	"vizzydb/pkg/api"
	"vizzydb/pkg/chat"
	"vizzydb/pkg/config"
	"vizzydb/pkg/exports"
	"vizzydb/pkg/logger"
	"vizzydb/pkg/security"
	"vizzydb/pkg/store"
	"vizzydb/pkg/wrike"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg    *config.Config
	dbPath string
	addr   string

	rs        store.RecordStore
	exports   *exports.Service
	chat      *chat.Service
	retention *retention.Runner

	version string
}

// New initializes resources that do not require a running context (store,
// services, audit sink). Call Run to start retention and the HTTP server
// and block until shutdown.
func New(cfg *config.Config, addr, dbPath, version string) (*App, error) {
	_ = godotenv.Load(".env")

	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	rs, err := store.OpenPebble(dbPath, cfg.Storage.MaxCollectionSize.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}

	if err := logger.AttachAuditFileSink(filepath.Join(dbPath, "state", "audit")); err != nil {
		logger.Warn("audit_sink_unavailable", "error", err)
	}

	var creator wrike.Creator = wrike.Stub{}
	if cfg.Export.Wrike.Endpoint != "" {
		creator = wrike.NewClient(cfg.Export.Wrike.Endpoint, cfg.Export.Wrike.Token)
	}

	a := &App{
		cfg:     cfg,
		dbPath:  dbPath,
		addr:    addr,
		rs:      rs,
		exports: exports.New(rs, creator),
		chat:    chat.New(rs),
		version: version,
	}
	a.retention = retention.NewRunner(cfg.Retention, a.exports, a.chat)
	return a, nil
}

// Handler builds the middleware-wrapped API handler.
func (a *App) Handler() http.Handler {
	sec := security.SecConfig{
		AllowedOrigins: a.cfg.Security.CORS.AllowedOrigins,
		RPS:            a.cfg.Security.RateLimit.RPS,
		Burst:          a.cfg.Security.RateLimit.Burst,
		APIKeys:        make(map[string]struct{}),
	}
	for _, k := range a.cfg.Security.APIKeys {
		if k != "" {
			sec.APIKeys[k] = struct{}{}
		}
	}
	return security.Middleware(sec)(api.Handler(a.exports, a.chat))
}

// Run starts the retention scheduler and the HTTP server, blocking until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context, source string) error {
	a.printBanner(source)

	cancelRetention, err := a.retention.Start(ctx)
	if err != nil {
		return err
	}
	defer cancelRetention()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return a.shutdown()
		}
		_ = a.shutdown()
		return err
	}
}

func (a *App) shutdown() error {
	if err := a.rs.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
		return err
	}
	return nil
}

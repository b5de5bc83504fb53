package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"vizzydb/internal/app"
	"vizzydb/pkg/config"
	"vizzydb/pkg/logger"
	"vizzydb/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var version = "dev"

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithLevel(cfg.Logging.Level)

	// flags win over env/config when set explicitly
	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = addrVal
	}
	dbPath := cfg.Storage.DBPath
	if setFlags["db"] || dbPath == "" {
		dbPath = dbVal
	}

	source := "config"
	switch {
	case setFlags["addr"] || setFlags["db"]:
		source = "flags"
	case envUsed:
		source = "env"
	}

	a, err := app.New(cfg, addr, dbPath, version)
	if err != nil {
		shutdown.Abort("startup failed", err, dbPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx, source); err != nil {
		logger.Error("server_exit", "error", err)
	}
	logger.Info("server_stopped")
}

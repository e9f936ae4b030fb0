package main

import (
	"context"
	"flag"
	"os"

	"github.com/dd0wney/keygate/pkg/api"
	"github.com/dd0wney/keygate/pkg/auth"
	"github.com/dd0wney/keygate/pkg/config"
	"github.com/dd0wney/keygate/pkg/licensing"
	"github.com/dd0wney/keygate/pkg/logging"
	"github.com/dd0wney/keygate/pkg/metrics"
	"github.com/dd0wney/keygate/pkg/server"
)

var configPath = flag.String("config", "", "optional YAML config file (env vars take defaults)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewDefaultLogger().Error("failed to load configuration", logging.Error(err))
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	ctx := context.Background()

	// PostgreSQL preferred, JSON file store as development fallback
	var store licensing.LicenseStore
	if cfg.DatabaseURL != "" {
		logger.Info("initializing PostgreSQL store")
		store, err = licensing.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to initialize PostgreSQL store", logging.Error(err))
			os.Exit(1)
		}
	} else {
		logger.Info("initializing JSON file store", logging.String("data_dir", cfg.DataDir))
		store, err = licensing.NewStore(cfg.DataDir)
		if err != nil {
			logger.Error("failed to initialize store", logging.Error(err))
			os.Exit(1)
		}
	}
	defer store.Close()

	resolver := licensing.NewResolver(cfg.Mode(), store)
	manager := licensing.NewManager(store, resolver, cfg.Mode(), logger)
	engine := licensing.NewBindingEngine(store, resolver, logger)

	if cfg.SeedDemoData {
		if err := manager.EnsureSeeded(ctx); err != nil {
			logger.Error("failed to seed demo data", logging.Error(err))
			os.Exit(1)
		}
	}

	if cfg.AdminPasswordHash == "" {
		logger.Warn("no admin password hash configured - admin login will fail closed")
	}
	if cfg.AdminSecretKey == "" {
		logger.Warn("no admin secret key configured - admin operations will fail closed")
	}
	authn := auth.NewAdminAuthenticator(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.AdminSecretKey)

	registry := metrics.NewRegistry()
	apiServer := api.NewServer(store, engine, manager, authn, logger, registry)

	gs := server.NewGracefulServer(":"+cfg.Port, apiServer.Handler(), logger)

	logger.Info("license server starting",
		logging.String("port", cfg.Port),
		logging.Bool("postgres", cfg.DatabaseURL != ""),
		logging.String("feature_mode", cfg.FeatureMode),
	)

	if err := gs.Start(); err != nil {
		logger.Error("server error", logging.Error(err))
		os.Exit(1)
	}
}

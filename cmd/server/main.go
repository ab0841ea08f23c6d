// Command server exposes the materialized view engine over TCP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nickyhof/matview"
	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/config"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/logging"
	"github.com/nickyhof/matview/ps"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (environment only if empty)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("matview server v%s\n", Version)
		return
	}

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persistence, err := openPersistence(cfg.DataDir, logger)
	if err != nil {
		return err
	}

	var accessControl access.AccessControl = access.AllowAll{}
	if cfg.Rules != "" {
		rules, err := access.LoadRules(ctx, cfg.Rules, &cfg.S3, logger)
		if err != nil {
			return fmt.Errorf("failed to load access rules: %w", err)
		}
		accessControl = rules
		logger.Info("Loaded access rules", zap.String("location", cfg.Rules))
	}

	instance := matview.Open(persistence, logger).WithAccessControl(accessControl)
	identity := core.Identity{Name: "matview", Email: "server@matview.local"}

	server := NewServer(instance.Metadata, instance.AccessControl, identity, cfg.Catalog, cfg.Schema, logger)
	if cfg.Auth.Enabled {
		server.WithAuth(&cfg.Auth)
	}

	if cfg.TLS.Enabled() {
		err = server.StartTLS(cfg.Addr, cfg.TLS.CertFile, cfg.TLS.KeyFile)
	} else {
		err = server.Start(cfg.Addr)
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down")
	return server.Stop()
}

func openPersistence(dataDir string, logger *zap.Logger) (*ps.Persistence, error) {
	if dataDir == "" {
		logger.Info("Using memory persistence")
		return ps.NewMemoryPersistence()
	}
	logger.Info("Using file persistence", zap.String("dir", dataDir))
	return ps.NewFilePersistence(dataDir)
}

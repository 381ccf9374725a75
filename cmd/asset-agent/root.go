package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kubev2v/asset-agent/internal/bus"
	"github.com/kubev2v/asset-agent/internal/config"
	"github.com/kubev2v/asset-agent/internal/store"
	"github.com/kubev2v/asset-agent/internal/store/migrations"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "asset-agent",
		Short:         "Asset directory agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a configuration file")
	root.PersistentFlags().String("log-level", "debug", "log level")
	root.PersistentFlags().String("log-format", "console", "log format: console or json")
	root.PersistentFlags().String("nats-url", "nats://127.0.0.1:4222", "NATS server url")

	root.AddCommand(
		newRunCmd(),
		newImportCmd(),
		newGetIDCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	zap.S().Named("config").Debugw("configuration loaded", "config", cfg.DebugMap())
	return cfg, nil
}

func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func openStore(ctx context.Context, cfg *config.Configuration) (*sql.DB, *store.Store, error) {
	db, err := store.NewDB(store.DataFilePath(cfg.Agent.DataFolder))
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, store.NewStore(db), nil
}

func connectBus(cfg *config.Configuration) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.Bus.URL,
		nats.Name("asset-agent"),
		nats.Timeout(cfg.Bus.ConnectTimeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Bus.URL, err)
	}
	return nc, nil
}

func busConfig(cfg *config.Configuration) bus.Config {
	return bus.Config{
		ChangeSubject:  cfg.Bus.ChangeSubject,
		StreamSubject:  cfg.Bus.StreamSubject,
		GetIDSubject:   cfg.Bus.GetIDSubject,
		RequestTimeout: cfg.Bus.RequestTimeout,
		Workers:        cfg.Agent.Workers,
	}
}

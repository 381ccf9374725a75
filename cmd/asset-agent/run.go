package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kubev2v/asset-agent/internal/bus"
	"github.com/kubev2v/asset-agent/internal/handlers"
	"github.com/kubev2v/asset-agent/internal/server"
	"github.com/kubev2v/asset-agent/internal/services"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve asset changes from the bus and the lookup API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = zap.L().Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			assetSrv := services.NewAssetService(st)
			converter := services.NewConverter(assetSrv, cfg.Agent.TestMode)

			nc, err := connectBus(cfg)
			if err != nil {
				return err
			}
			defer nc.Close()

			b := bus.New(nc, busConfig(cfg), services.NewMessageHandler(assetSrv, converter), assetSrv)
			if err := b.Start(); err != nil {
				return err
			}
			defer b.Stop()

			h := handlers.New(assetSrv)
			srv := server.NewServer(cfg, func(router *gin.RouterGroup) {
				handlers.RegisterHandlers(router, h)
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(ctx)
			}()

			log := zap.S().Named("agent")
			log.Infow("asset agent started", "nats", cfg.Bus.URL, "http-port", cfg.Server.HTTPPort)

			select {
			case <-ctx.Done():
				log.Info("got TERM signal, exiting...")
			case err = <-errCh:
				if err != nil {
					log.Errorw("http server failed", "error", err)
				}
			}
			srv.Stop(context.Background())
			return err
		},
	}

	cmd.Flags().Int("http-port", 8000, "HTTP lookup server port")
	cmd.Flags().String("server-mode", "dev", "server mode: dev or prod")
	cmd.Flags().String("data-folder", "", "folder holding the asset database, empty for in-memory")
	cmd.Flags().Int("workers", 4, "number of bus message workers")
	cmd.Flags().Bool("test-mode", false, "do not resolve parent ids when decoding bus messages")
	return cmd
}

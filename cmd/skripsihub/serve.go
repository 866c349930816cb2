package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/medhika/skripsihub"
	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/httpapi"
	"github.com/medhika/skripsihub/internal/appconfig"
	"github.com/medhika/skripsihub/internal/restbackend"
	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the workspace session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return err
				}
			} else if _, err := os.Stat(".env"); err == nil {
				if err := godotenv.Load(); err != nil {
					logger.Warn("env file load failed", "err", err)
				}
			}

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}

			backend, err := restbackend.NewClient(restbackend.Options{
				BaseURL: cfg.Backend.BaseURL,
				APIKey:  cfg.Backend.APIKey,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			serviceCfg := schema.ServiceConfig{
				StateDir:           cfg.StateDir,
				PageSize:           cfg.Service.PageSize,
				WindowMaxMessages:  cfg.Service.WindowMaxMessages,
				AutosaveInterval:   time.Duration(cfg.Service.AutosaveIntervalSeconds) * time.Second,
				SaveRetryPerMinute: cfg.Service.SaveRetryPerMinute,
				DiagramHistoryMax:  cfg.Service.DiagramHistoryMax,
			}
			serverCfg := skripsihub.ServerConfig{
				Service: serviceCfg,
				HTTP: httpapi.Config{
					Addr:       cfg.HTTP.Addr,
					HubHistory: cfg.HTTP.HubHistory,
				},
			}
			serverDeps := skripsihub.ServerDeps{
				ServiceDeps: core.ServiceDeps{
					Chat:       backend,
					History:    backend,
					Workspaces: backend,
					Diagrams:   backend,
					Uploads:    backend,
					Logger:     logger,
				},
			}
			server, err := skripsihub.New(serverCfg, serverDeps, skripsihub.WithHTTP())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("http server listening", "addr", serverCfg.HTTP.Addr, "backend", cfg.Backend.BaseURL)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to .env file")
	return cmd
}

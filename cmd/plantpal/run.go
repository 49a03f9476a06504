// v0
// cmd/plantpal/run.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NicoGruemmert/PlantPal/internal/app"
	"github.com/NicoGruemmert/PlantPal/internal/config"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the measurement loop and the status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

			cfg, err := config.Load()
			if err != nil {
				bootstrap.Error("config_load_failed", slog.Any("err", err))
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg)
			if err != nil {
				bootstrap.Error("app_init_failed", slog.Any("err", err))
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				if cerr := application.Close(closeCtx); cerr != nil {
					bootstrap.Error("app_close_failed", slog.Any("err", cerr))
				}
			}()

			logger := application.Logger()
			logger.Info("service_boot",
				slog.String("device", cfg.DeviceName),
				slog.String("listen_address", cfg.ListenAddress),
				slog.String("log_path", cfg.LogFilePath),
				slog.String("properties_path", cfg.PropertiesPath),
				slog.String("mqtt_broker", cfg.MQTTBroker),
				slog.String("kafka_brokers", strings.Join(cfg.KafkaBrokers, ",")),
				slog.String("store", cfg.StoreBackend+":"+cfg.StorePath),
			)

			if err := application.Run(ctx); err != nil {
				logger.Error("service_terminated", slog.Any("err", err))
				return err
			}
			return nil
		},
	}
}

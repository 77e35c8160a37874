package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lorasense/internal/config"
	"lorasense/internal/logging"
	"lorasense/internal/mqtt"
	"lorasense/internal/sensor"
)

var version = "dev"
var appName = "lorasense-simulator"

func main() {
	cfg, err := config.LoadSimulatorFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Config, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"broker", mqtt.BrokerURL(cfg.Config),
		"topic", cfg.UplinkTopic,
		"interval", cfg.Interval.String(),
		"samples", cfg.Samples,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.Simulator, logger *slog.Logger) error {
	client := mqtt.NewClient(cfg.Config, logger)
	defer client.Disconnect()
	if err := client.Connect(ctx); err != nil {
		return err
	}

	node := sensor.NewNode(cfg, uint64(time.Now().UnixNano()))
	return sensor.Run(ctx, cfg, node, client)
}

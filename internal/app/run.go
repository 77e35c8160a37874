package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lorasense/internal/config"
	"lorasense/internal/db"
	"lorasense/internal/deadletter"
	"lorasense/internal/formatter"
	"lorasense/internal/frame"
	"lorasense/internal/httpapi"
	"lorasense/internal/metrics"
	"lorasense/internal/migrate"
	"lorasense/internal/mqtt"
	"lorasense/internal/pipeline"
)

// NewFormatter builds the formatter described by cfg.
func NewFormatter(cfg config.Config) (*formatter.Formatter, error) {
	profile, err := formatter.ProfileByName(cfg.DeviceProfile)
	if err != nil {
		return nil, err
	}
	policy := frame.RejectUnknown
	if cfg.UnknownTypePolicy == "sentinel" {
		policy = frame.SentinelUnknown
	}
	return formatter.New(formatter.Options{
		Profile:       profile,
		SuffixLen:     cfg.DeviceSuffixLen,
		UnknownPolicy: policy,
	}), nil
}

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttUplinkTopic", cfg.MQTTUplinkTopic,
		"mqttOutputTopic", cfg.MQTTOutputTopic,
		"mqttQos", cfg.MQTTQoS,
		"deviceProfile", cfg.DeviceProfile,
		"deviceSuffixLen", cfg.DeviceSuffixLen,
		"unknownTypePolicy", cfg.UnknownTypePolicy,
		"outputMode", cfg.OutputMode,
		"deadLetterEnabled", cfg.DeadLetterEnabled,
		"sqlitePath", cfg.SQLitePath,
	)

	f, err := NewFormatter(cfg)
	if err != nil {
		return err
	}

	var dbConn *sql.DB
	var deadLetters deadletter.Repository
	if cfg.DeadLetterEnabled {
		dbConn, err = db.Open(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(dbConn); closeErr != nil {
				slog.Error("db close", "error", closeErr)
			}
		}()
		if err := migrate.Run(dbConn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		deadLetters = deadletter.NewRepository(dbConn)
		slog.Info("dead-letter store ready")
	}

	m := metrics.New()
	client := mqtt.NewClient(cfg, slog.Default())
	handler := pipeline.New(pipeline.Options{
		Formatter:   f,
		Publisher:   client,
		OutputTopic: cfg.MQTTOutputTopic,
		Mode:        pipeline.OutputMode(cfg.OutputMode),
		Metrics:     m,
		DeadLetters: deadLetters,
		Logger:      slog.Default(),
	})
	// The handler must be set before Connect: the subscription is made from
	// the connect callback.
	client.SetMessageHandler(handler.HandleUplink)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          dbConn,
		MQTT:        client,
		Formatter:   f,
		DeadLetters: deadLetters,
		Metrics:     m,
	})

	// Short timeout so HTTP and /healthz come up even when the broker is down.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = client.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		client.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	client.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/settings"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(nil, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	logger.Info("Starting fintrack",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"rates_url", cfg.RatesURL,
		"rates_refresh_interval", cfg.RatesRefreshInterval)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	backendOpts, err := backend.OptionsFromConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	db, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).
		Open(startupCtx, backendOpts)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Ledger events are published only when a broker is configured.
	var publisher ledger.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events will not be published", applog.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	l := ledger.New(db.Store, publisher)
	l.Load(startupCtx)

	prefs := settings.New(db.Store)
	prefs.Load(startupCtx)

	provider := rates.NewProvider(
		rates.NewNBUSource(cfg.RatesURL, nil),
		db.Store,
		rates.Config{
			RefreshInterval: cfg.RatesRefreshInterval,
			MaxRetries:      cfg.RatesMaxRetries,
			Timeout:         cfg.RatesTimeout,
		},
	)
	provider.Restore(startupCtx)

	srv := apphttp.NewServer(l, prefs, provider, apphttp.Options{
		Addr:   ":" + cfg.Port,
		Logger: logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := provider.Stop(ctx); err != nil {
			logger.Error("Rate provider shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if err := db.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	})

	// The provider fetches in the background; the API serves the restored
	// snapshot, or unconverted amounts, until the first fetch completes.
	if err := provider.Start(ctx); err != nil {
		logger.Error("Failed to start rate provider", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("HTTP server listening", "addr", srv.Addr, "transactions", l.Len())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

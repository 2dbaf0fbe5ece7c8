package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulsestack/pulse-aiops/internal/bus"
	"github.com/pulsestack/pulse-aiops/internal/config"
	"github.com/pulsestack/pulse-aiops/internal/correlation"
	"github.com/pulsestack/pulse-aiops/internal/feedback"
	"github.com/pulsestack/pulse-aiops/internal/metrics"
	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/pipeline"
	"github.com/pulsestack/pulse-aiops/internal/remediation"
	"github.com/pulsestack/pulse-aiops/internal/service"
	"github.com/pulsestack/pulse-aiops/internal/store"
	"github.com/pulsestack/pulse-aiops/internal/utils"
	"github.com/pulsestack/pulse-aiops/internal/window"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting aiops-engine", slog.String("metrics_address", cfg.Server.MetricsAddress))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var provider store.Provider = store.NewMemoryProvider()
	if cfg.Store.ValkeyEnabled && cfg.Store.Addr != "" {
		valkey, err := store.NewValkeyProvider(store.ValkeyConfig{
			Addr:         cfg.Store.Addr,
			Username:     cfg.Store.Username,
			Password:     cfg.Store.Password,
			DB:           cfg.Store.DB,
			DialTimeout:  cfg.Store.DialTimeout,
			ReadTimeout:  cfg.Store.ReadTimeout,
			WriteTimeout: cfg.Store.WriteTimeout,
			MaxRetries:   cfg.Store.MaxRetries,
			TLS:          cfg.Store.TLS,
		})
		if err != nil {
			logger.Error("valkey store unavailable", slog.Any("error", err))
			os.Exit(1)
		}
		provider = valkey
		logger.Info("using valkey store", slog.String("addr", cfg.Store.Addr))
	} else {
		logger.Warn("using in-memory store, window and ledger will not survive restarts")
	}
	defer provider.Close()

	ruleEngine, err := remediation.NewRuleEngine(cfg.Remediation.RulesPath, logger)
	if err != nil {
		logger.Error("failed to load remediation rule pack", slog.Any("error", err))
		os.Exit(1)
	}

	windows := window.New(provider, cfg.Window.Capacity, logger)
	ledger := remediation.NewLedger(provider, logger)
	remediator := remediation.NewRemediator(ledger, ruleEngine, provider, logger,
		remediation.WithDedupeTTL(cfg.Remediation.DedupeTTL))
	correlator := correlation.NewEngine(metrics.Recorder{}, logger)

	pipe := pipeline.New(logger, windows, correlator, remediator,
		pipeline.WithRemediationFloor(models.Severity(cfg.Pipeline.RemediationFloor)),
		pipeline.WithTrendWindow(cfg.Pipeline.TrendWindow))

	aiopsService := service.NewAIOpsService(logger, windows, pipe, remediator, ledger, feedback.New(provider, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var nc *nats.Conn
	if cfg.Bus.Enabled {
		nc, err = nats.Connect(cfg.Bus.URL,
			nats.Name("aiops-engine"),
			nats.MaxReconnects(-1))
		if err != nil {
			logger.Error("nats connect failed", slog.String("url", cfg.Bus.URL), slog.Any("error", err))
			os.Exit(1)
		}
		defer nc.Close()

		alerts := bus.NewAlertPublisher(nc, logger)
		consumer := bus.NewConsumer(nc, aiopsService, alerts, cfg.Bus.Queue, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("sample consumer exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancel()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("aiops-engine stopped")
}

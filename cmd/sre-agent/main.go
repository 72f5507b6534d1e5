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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsmesh/sre-agent/internal/api"
	"github.com/opsmesh/sre-agent/internal/cache"
	"github.com/opsmesh/sre-agent/internal/config"
	"github.com/opsmesh/sre-agent/internal/executor"
	"github.com/opsmesh/sre-agent/internal/gateway"
	"github.com/opsmesh/sre-agent/internal/metrics"
	"github.com/opsmesh/sre-agent/internal/services"
	"github.com/opsmesh/sre-agent/internal/store"
	"github.com/opsmesh/sre-agent/internal/team"
	"github.com/opsmesh/sre-agent/internal/utils"
	"github.com/opsmesh/sre-agent/internal/workflow"
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
	logger.Info("starting sre-agent", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var snapshotCache cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled {
		snapshotCache = cache.NewMemoryProvider()
	}
	defer snapshotCache.Close()

	var gw gateway.Gateway
	if cfg.Kubernetes.Mock {
		logger.Info("using mock Kubernetes gateway")
		gw = gateway.NewMockGateway(logger)
	} else {
		clientset, err := gateway.NewClientset(cfg.Kubernetes.Kubeconfig, cfg.Kubernetes.InCluster)
		if err != nil {
			logger.Error("failed to build Kubernetes client", slog.Any("error", err))
			os.Exit(1)
		}
		gw = gateway.NewKubeGateway(logger, clientset, cfg.Kubernetes.Timeout, snapshotCache, cfg.Cache.SnapshotTTL)
	}

	var history services.HistoryStore
	if cfg.Store.Path != "" {
		auditStore, err := store.Open(cfg.Store.Path)
		if err != nil {
			logger.Error("failed to open decision store", slog.String("path", cfg.Store.Path), slog.Any("error", err))
			os.Exit(1)
		}
		defer auditStore.Close()
		history = auditStore
	}

	orchestrator := workflow.NewOrchestrator(logger, gw, team.Config{
		MaxMessages:      cfg.Workflow.MaxMessages,
		MaxTurns:         cfg.Workflow.MaxTurns,
		TerminationToken: cfg.Workflow.TerminationToken,
		TurnTimeout:      cfg.Workflow.TurnTimeout,
	})
	decisionService := services.NewDecisionService(logger, orchestrator, history)
	actionExecutor := executor.NewNotImplementedExecutor(logger)

	handler := api.NewHandler(logger, decisionService, actionExecutor, cfg.Safety)
	server := api.NewServer(cfg.Server, logger, handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("sre-agent stopped")
}

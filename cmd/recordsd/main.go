package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HerbHall/managedrecords/internal/config"
	"github.com/HerbHall/managedrecords/internal/managed"
	"github.com/HerbHall/managedrecords/internal/metrics"
	"github.com/HerbHall/managedrecords/internal/plugin"
	"github.com/HerbHall/managedrecords/internal/recordstore"
	"github.com/HerbHall/managedrecords/internal/server"
	"github.com/HerbHall/managedrecords/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	// Load configuration
	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(v)

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("records server starting", zap.String("version", version.Short()))

	// Metrics registry shared by modules and the /metrics endpoint
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	// Register all modules (compile-time composition)
	registry := plugin.NewRegistry(logger)
	modules := []plugin.Plugin{
		recordstore.New(m),
		managed.New(m),
	}
	for _, p := range modules {
		if err := registry.Register(p); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	if err := registry.InitAll(v); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := registry.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	addr := config.Addr(v)
	srv := server.New(addr, registry, logger,
		server.WithMetrics(m, promReg),
		server.WithRateLimit(cfg.GetFloat64("server.rate_limit"), cfg.GetInt("server.rate_burst")),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("records server ready", zap.String("addr", addr))

	err = g.Wait()
	registry.StopAll()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("records server stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"fxvault/native/fxvault"
	"fxvault/observability/logging"
	telemetry "fxvault/observability/otel"
	"fxvault/services/vaultd/adapters"
	"fxvault/services/vaultd/config"
	"fxvault/services/vaultd/oracle"
	"fxvault/services/vaultd/rebalance"
	"fxvault/services/vaultd/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/vaultd/config.yaml", "path to vaultd configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("FXVAULT_ENV"))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("vaultd: load config: %v", err)
	}

	logger := logging.SetupWithFile("vaultd", env, cfg.LogFile)

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	otlpHeaders := telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "vaultd",
		Environment: env,
		Endpoint:    otlpEndpoint,
		Insecure:    insecure,
		Headers:     otlpHeaders,
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		log.Fatalf("vaultd: init telemetry: %v", err)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	dsn, err := storage.FileDSN(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("vaultd: resolve storage DSN: %v", err)
	}
	store, err := storage.Open(dsn)
	if err != nil {
		log.Fatalf("vaultd: open storage: %v", err)
	}
	defer store.Close()

	ledger, err := fxvault.NewLedger(store)
	if err != nil {
		log.Fatalf("vaultd: restore ledger: %v", err)
	}

	registry := adapters.NewRegistry()
	sources := make([]oracle.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		built, err := registry.Build(src.Name, src.Type, src.Endpoint, src.APIKey, src.Rates)
		if err != nil {
			log.Fatalf("vaultd: build source %s: %v", src.Name, err)
		}
		sources = append(sources, built)
	}

	pairs := make([]oracle.Pair, 0, len(cfg.Pairs))
	rebalancePairs := make([]rebalance.Pair, 0, len(cfg.Pairs))
	for _, pair := range cfg.Pairs {
		pairs = append(pairs, oracle.Pair{Base: pair.Base, Quote: pair.Quote})
		rebalancePairs = append(rebalancePairs, rebalance.Pair{Base: pair.Base, Quote: pair.Quote})
	}

	mgr, err := oracle.New(store, sources, pairs, cfg.Oracle.Interval.Duration, cfg.Oracle.MaxAge.Duration, cfg.Oracle.MinFeeds, oracle.WithLogger(logger))
	if err != nil {
		log.Fatalf("vaultd: oracle manager: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := mgr.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("oracle manager exited", "error", err)
			stop()
		}
	}()

	if !cfg.Rebalance.Disabled {
		runner, err := rebalance.New(ledger, rebalancePairs, cfg.Rebalance.Interval.Duration, rebalance.WithLogger(logger))
		if err != nil {
			log.Fatalf("vaultd: rebalance runner: %v", err)
		}
		go func() {
			if err := runner.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("rebalance runner exited", "error", err)
				stop()
			}
		}()
	}

	<-rootCtx.Done()
	logger.Info("vaultd shutting down")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ismaiel54/takeprofit-orchestrator/internal/ackwait"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/config"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/httpapi"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/logging"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/msg"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/observability"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/orchestrator"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/outbox"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/provider"
	"github.com/ismaiel54/takeprofit-orchestrator/internal/redisstore"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := config.LoadConfig("takeprofit-service")

	// Initialize logger
	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting takeprofit service",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("redis_addrs", cfg.RedisAddrs),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("data_dir", cfg.DataDir),
		zap.String("provider_uds", cfg.ProviderUDSPath),
		zap.String("provider_tcp", cfg.ProviderTCPAddr),
	)

	ctx := context.Background()

	// Health checker
	healthChecker := observability.NewHealthChecker(logger)

	// Redis client shared by all store adapters
	rdb := redisstore.NewClient(cfg.RedisAddrList(), cfg.RedisPassword)
	defer rdb.Close()

	if err := redisstore.Ping(ctx, rdb); err != nil {
		logger.Warn("redis not reachable at startup", zap.Error(err))
		healthChecker.SetDependencyReady("redis", false)
	} else {
		healthChecker.SetDependencyReady("redis", true)
	}

	// Kafka producer + durable-event outbox
	producer, err := msg.NewProducer(cfg.KafkaBrokerList(), logger)
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()
	healthChecker.SetDependencyReady("kafka", true)

	store, err := outbox.Open(filepath.Join(cfg.DataDir, "outbox.db"))
	if err != nil {
		logger.Fatal("failed to open outbox store", zap.Error(err))
	}
	defer store.Close()

	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	publisher := outbox.NewPublisher(store, producer, logger)
	go func() {
		if err := publisher.Run(publisherCtx); err != nil && publisherCtx.Err() == nil {
			logger.Error("outbox publisher stopped", zap.Error(err))
		}
	}()

	// Provider gateway client
	gateway := provider.NewClient(provider.Config{
		UDSPath: cfg.ProviderUDSPath,
		TCPAddr: cfg.ProviderTCPAddr,
		Timeout: time.Duration(cfg.ProviderTimeoutMs) * time.Millisecond,
	}, logger)
	defer gateway.Close()

	// Store adapters and the orchestrator
	groups := redisstore.NewGroupStore(rdb, logger)
	orch := orchestrator.New(
		redisstore.NewTriggerStore(rdb, logger),
		redisstore.NewSnapshotStore(rdb, logger),
		store,
		gateway,
		redisstore.NewLifecycleRegistry(rdb, logger),
		redisstore.NewAccountStore(rdb, logger),
		groups,
		logger,
	)

	waiter := ackwait.NewWaiter(redisstore.NewAckStore(rdb, logger), logger)

	// HTTP server: API + healthz
	mux := http.NewServeMux()
	httpapi.NewServer(orch, waiter, logger).Register(mux)
	healthChecker.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: mux,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Periodic orchestration stats
	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-statsCtx.Done():
				return
			case <-ticker.C:
				logger.Info("orchestrator stats",
					zap.Int64("swallowed_writes", orch.SwallowedWrites()),
				)
			}
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	healthChecker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	// Give the outbox publisher a final tick before the producer closes
	stopPublisher()
	time.Sleep(300 * time.Millisecond)

	logger.Info("takeprofit service stopped")
}

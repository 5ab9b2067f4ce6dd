package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	catalogapp "github.com/dmehra2102/order-consistency-engine/internal/catalog/application"
	catalogpg "github.com/dmehra2102/order-consistency-engine/internal/catalog/infrastructure/postgres"
	customerapp "github.com/dmehra2102/order-consistency-engine/internal/customer/application"
	customerpg "github.com/dmehra2102/order-consistency-engine/internal/customer/infrastructure/postgres"
	"github.com/dmehra2102/order-consistency-engine/internal/order/application"
	orderkafka "github.com/dmehra2102/order-consistency-engine/internal/order/infrastructure/kafka"
	"github.com/dmehra2102/order-consistency-engine/internal/platform/ops"
	"github.com/dmehra2102/order-consistency-engine/internal/platform/postgres"
	"github.com/dmehra2102/order-consistency-engine/pkg/config"
	"github.com/dmehra2102/order-consistency-engine/pkg/idempotency"
	"github.com/dmehra2102/order-consistency-engine/pkg/logging"
	"github.com/dmehra2102/order-consistency-engine/pkg/metrics"
	"github.com/dmehra2102/order-consistency-engine/pkg/outbox"
	"github.com/dmehra2102/order-consistency-engine/pkg/shutdown"
	"github.com/dmehra2102/order-consistency-engine/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("order-service stopped", "err", err)
		os.Exit(1)
	}
	log.Info("order-service shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	stopTracing, err := tracing.Init(ctx, "order-service", cfg.TraceEndpoint, io.Discard, log)
	if err != nil {
		return err
	}
	defer func() { _ = stopTracing(context.Background()) }()

	pool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, log, pool); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewOrderMetrics(reg)

	uow := postgres.NewUnitOfWork(log, pool, cfg.TxMaxRetries, m.TxRetries)
	services := orderkafka.Services{
		Orders:    application.NewService(log, uow, m),
		Customers: customerapp.NewService(log, customerpg.NewStore(log, pool), customerpg.NewRankRepository(pool)),
		Catalog:   catalogapp.NewService(log, catalogpg.NewRepository(log, pool)),
	}

	writer := orderkafka.NewWriter(log, cfg.KafkaBrokers)
	defer writer.Close()
	relay := outbox.NewRelay(log,
		postgres.NewOutboxStore(log, pool),
		outbox.NewDispatcher(log, writer, cfg.OutboxTopic),
		relayID(),
		outbox.WithObserver(m),
	)

	consumer := orderkafka.NewConsumer(log,
		orderkafka.NewReader(cfg.KafkaBrokers, cfg.CommandTopic, cfg.ConsumerGroup),
		services,
		idempotency.NewStore(rdb, cfg.IdempotencyTTL),
	)

	opsHandler := ops.NewHandler(log, metrics.Handler(reg), map[string]ops.Check{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error {
		log.Info("ops listening", "addr", cfg.OpsAddr)
		return shutdown.Serve(gctx, ops.NewServer(cfg.OpsAddr, opsHandler.Routes()), 10*time.Second)
	})
	return g.Wait()
}

func relayID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "order-service"
	}
	return host + "-" + uuid.NewString()[:8]
}

package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tillworks/register-engine/internal/catalog"
	"github.com/tillworks/register-engine/internal/config"
	"github.com/tillworks/register-engine/internal/sales/application"
	saleshttp "github.com/tillworks/register-engine/internal/sales/infrastructure/http"
	saleskafka "github.com/tillworks/register-engine/internal/sales/infrastructure/kafka"
	salespg "github.com/tillworks/register-engine/internal/sales/infrastructure/postgres"
	"github.com/tillworks/register-engine/internal/settings"
	"github.com/tillworks/register-engine/pkg/idempotency"
	"github.com/tillworks/register-engine/pkg/logging"
	"github.com/tillworks/register-engine/pkg/outbox"
	"github.com/tillworks/register-engine/pkg/shutdown"
	"github.com/tillworks/register-engine/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("register-service", "unknown", "info").Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New("register-service", cfg.Env, cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "register-service", cfg.OTLPEndpoint)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	provider, err := settings.NewProvider(settings.TaxConfig{
		DefaultTaxRate:    cfg.DefaultTaxRate,
		CurrencyPrecision: cfg.CurrencyPrecision,
		Currency:          cfg.Currency,
	})
	if err != nil {
		log.Error("invalid tax config", "err", err)
		os.Exit(1)
	}

	// Redis backs the idempotency store and the catalog cache; without it
	// both simply stay off.
	var rdb *redis.Client
	var idemStore *idempotency.Store
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idemStore = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	}

	// Catalog: remote when configured, else the seeded in-process store.
	var cat catalog.Service
	if cfg.CatalogURL != "" {
		cat = catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, log)
	} else {
		log.Info("no CATALOG_URL set, using seeded in-memory catalog")
		cat = catalog.NewSeeded()
	}
	if rdb != nil {
		cat = catalog.NewCache(cat, rdb, cfg.CatalogCacheTTL, log)
	}

	// Sales ledger: Postgres journal plus outbox relay into Kafka when
	// configured, otherwise a no-op.
	var ledger application.SalesLedger = application.NopLedger{}
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgLedger := salespg.NewLedger(log, pool)
		if err := pgLedger.EnsureSchema(ctx); err != nil {
			log.Error("pg schema init failed", "err", err)
			os.Exit(1)
		}
		ledger = pgLedger

		if cfg.KafkaAddr != "" {
			writer := saleskafka.NewWriter([]string{cfg.KafkaAddr})
			defer writer.Close()

			store := salespg.NewOutboxStore(log, pool)
			dispatch := outbox.NewDispatcher(log, writer, cfg.SalesTopic)
			relay := outbox.NewRelay(log, store, dispatch, "register-service-relay")
			go func() {
				if err := relay.Run(ctx); err != nil {
					log.Error("relay stopped with error", "err", err)
				}
			}()
		} else {
			log.Warn("no KAFKA_ADDR set, outbox events will stay pending")
		}
	}

	engine := application.NewManager(log, cat, provider, ledger)
	capi := catalog.NewAPI(cat, log)
	handler := saleshttp.NewHandler(log, engine, provider, capi, idemStore)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("register-service shutdown complete")
}

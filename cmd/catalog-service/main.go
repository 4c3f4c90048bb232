package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tillworks/register-engine/internal/catalog"
	"github.com/tillworks/register-engine/pkg/idempotency"
	"github.com/tillworks/register-engine/pkg/logging"
	"github.com/tillworks/register-engine/pkg/shutdown"
)

// catalog-service is the stand-in product catalog the register points its
// CATALOG_URL at in development: the seeded in-memory store behind the
// same REST surface a production catalog would expose. With KAFKA_ADDR
// set it also follows the sales feed and deducts stock for tracked
// products.
func main() {
	log := logging.New("catalog-service", env("ENV", "development"), env("LOG_LEVEL", "info"))

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	httpAddr := env("CATALOG_HTTP_ADDR", ":8081")

	store := catalog.NewSeeded()
	api := catalog.NewAPI(store, log)

	if kafkaAddr := env("KAFKA_ADDR", ""); kafkaAddr != "" {
		var idem *idempotency.Store
		if redisAddr := env("REDIS_ADDR", ""); redisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
			idem = idempotency.NewStore(rdb, 24*time.Hour)
		}
		consumer := catalog.NewSalesConsumer(log,
			strings.Split(kafkaAddr, ","),
			env("SALES_TOPIC", "sales.events"),
			env("CONSUMER_GROUP", "catalog-stock"),
			store, idem)
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("sales consumer stopped", "err", err)
				cancel()
			}
		}()
		log.Info("sales consumer started", "brokers", kafkaAddr)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/v1/catalog/products", api.Routes())

	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("catalog-service shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/kroma-labs/sentinel-search/esclient"
	"github.com/kroma-labs/sentinel-search/example/search/internal/catalog"
	"github.com/kroma-labs/sentinel-search/example/search/internal/config"
	"github.com/kroma-labs/sentinel-search/example/search/internal/telemetry"
)

func main() {
	ctx := context.Background()

	// 1. Setup OpenTelemetry (Tracing + Metrics)
	mux := http.NewServeMux()
	shutdownTracing, shutdownMetrics, err := telemetry.Setup(ctx, mux)
	if err != nil {
		log.Fatalf("Failed to setup OTel: %v", err)
	}
	defer func() {
		_ = shutdownTracing(ctx)
		_ = shutdownMetrics(ctx)
	}()

	// 2. Start Prometheus Metrics Server
	metricsServer := &http.Server{Addr: config.MetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("Starting Prometheus metrics server on %s", config.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Metrics server failed: %v", err)
		}
	}()

	// 3. Create the search client with a breaker shared through Redis
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{config.RedisAddr}})
	defer rdb.Close()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", config.ServiceName).Logger()

	client := esclient.New(
		esclient.WithBaseURL(config.DefaultBaseURL),
		esclient.WithServiceName(config.ServiceName),
		esclient.WithLogger(logger),
		esclient.WithWorkers(config.DefaultWorkers),
		esclient.WithRetryClassifier(esclient.TransientClassifier),
		esclient.WithBreakerConfig(esclient.DistributedBreakerConfig(esclient.NewRedisStore(rdb))),
		esclient.WithRateLimit(esclient.DefaultRateLimitConfig()),
		esclient.WithPrometheusRegisterer(prometheus.DefaultRegisterer),
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
	}()

	products := catalog.New(client, config.DefaultIndex, config.DefaultRetries)

	// 4. Perform Search Operations in a Loop
	// This generates continuous metrics for demonstration
	tracer := otel.Tracer("example-app")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := products.IndexProducts(ctx, catalog.SampleProducts(10)); err != nil {
		log.Printf("Failed to index products: %v", err)
	}

	ticker := time.NewTicker(time.Duration(config.OperationInterval) * time.Second)
	defer ticker.Stop()

	fmt.Println("✅ Search example app started!")
	fmt.Println("📊 Prometheus metrics: http://localhost:2112/metrics")
	fmt.Println("Press Ctrl+C to stop...")

	for {
		select {
		case <-ticker.C:
			ctx, span := tracer.Start(ctx, "search-operations")

			found, total, err := products.Search(ctx, "trail", 5)
			if err != nil {
				log.Printf("Failed to search products: %v", err)
			} else {
				log.Printf("🔎 Found %d of %d products", len(found), total)
			}

			if n, err := products.Count(ctx); err != nil {
				log.Printf("Failed to count products: %v", err)
			} else {
				log.Printf("📦 %d products indexed", n)
			}

			span.End()
			log.Println("✓ Search operations completed")

		case <-sigChan:
			fmt.Println("\n🛑 Shutting down gracefully...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Printf("Metrics server shutdown error: %v", err)
			}
			return
		}
	}
}

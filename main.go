package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"market-price-api/src/api"
	"market-price-api/src/dbutils"
	"market-price-api/src/finta"
	"market-price-api/src/pricecache"
	"market-price-api/src/prices"
	"market-price-api/src/store"
	"market-price-api/src/stream"
	"market-price-api/src/syncer"
	"market-price-api/src/utils"
)

const defaultUpstreamTimeout = 30 * time.Second

func main() {
	run()
}

func run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Fatalf("failed to init environment variables: %v", err)
	}

	if level, err := log.ParseLevel(utils.GetEnv("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := dbutils.InitPostgresWithUrl(databaseURL)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	priceStore := store.NewPriceStore(db)

	cache := buildCache()

	fintaClient := finta.NewClient(
		utils.GetEnv("FINTA_BASE_URL", "https://platform.fintacharts.com"),
		utils.GetEnv("FINTA_WS_URL", "wss://platform.fintacharts.com"),
		os.Getenv("FINTA_USERNAME"),
		os.Getenv("FINTA_PASSWORD"),
		durationEnv("UPSTREAM_TIMEOUT", defaultUpstreamTimeout),
	)

	priceService := prices.NewService(priceStore, cache, fintaClient).
		WithFillRatio(floatEnv("RANGE_FILL_RATIO", prices.DefaultFillRatio))

	pipeline := stream.NewPipeline(
		func(ctx context.Context) (stream.Conn, error) { return fintaClient.DialStream(ctx) },
		priceService,
		stream.Options{
			DefaultSymbols:  splitSymbols(utils.GetEnv("STREAM_SYMBOLS", "EUR/USD,GBP/USD")),
			DefaultProvider: utils.GetEnv("STREAM_PROVIDER", "oanda"),
			ReconnectDelay:  durationEnv("STREAM_RECONNECT_DELAY", stream.DefaultReconnectDelay),
		},
	)

	if err := pipeline.Start(ctx); err != nil {
		// The REST surface still works without the stream; syncs and
		// staleness-driven fetches keep data flowing.
		log.Errorf("failed to start streaming pipeline: %v", err)
	}

	syncService := syncer.NewService(priceStore, fintaClient, priceService)

	scheduler, err := syncer.NewScheduler(syncService, utils.GetEnv("SYNC_CRON", "@hourly"))
	if err != nil {
		log.Fatalf("failed to create sync scheduler: %v", err)
	}
	scheduler.Start()

	server := api.NewServer(priceService, syncService, pipeline, priceStore)

	port := utils.GetEnv("PORT", "8080")
	srv := &http.Server{
		Handler: server.Router(),
		Addr:    fmt.Sprintf(":%s", port),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Infof("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Info("Main: init complete")

	<-stop

	cancel()

	scheduler.Stop()
	pipeline.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Main: server shutdown: %v", err)
	}

	log.Info("Main: gracefully stopped!")
}

// buildCache prefers Redis when REDIS_URL is set and falls back to the
// in-process cache otherwise, or when Redis cannot be reached at startup.
func buildCache() pricecache.Cache {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Info("REDIS_URL not set, using in-memory price cache")
		return pricecache.NewMemory()
	}

	cache, err := pricecache.NewRedis(redisURL)
	if err != nil {
		log.Warnf("failed to init redis cache, falling back to in-memory: %v", err)
		return pricecache.NewMemory()
	}

	log.Info("using redis price cache")
	return cache
}

func splitSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warnf("invalid %s %q, using %v", key, raw, fallback)
		return fallback
	}

	return d
}

func floatEnv(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warnf("invalid %s %q, using %v", key, raw, fallback)
		return fallback
	}

	return f
}

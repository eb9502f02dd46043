package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hanaflu/techzone/internal/catalog"
	"github.com/hanaflu/techzone/internal/httpapi"
	"github.com/hanaflu/techzone/internal/merge"
	"github.com/hanaflu/techzone/internal/notify"
	"github.com/hanaflu/techzone/internal/store"
)

type config struct {
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	CartBackendURL  string
	CatalogURL      string
	ShutdownTimeout time.Duration
}

func loadConfig() *config {
	return &config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CartBackendURL:  getEnv("CART_BACKEND_URL", "http://localhost:8081"),
		CatalogURL:      getEnv("CATALOG_URL", "http://localhost:8082"),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}

	bus := notify.NewBroadcaster()
	guestStore := store.NewGuestStore(redisClient, bus)
	accountStore := store.NewAccountStore(cfg.CartBackendURL, bus)
	catalogClient := catalog.NewClient(cfg.CatalogURL)
	merger := merge.NewMerger(guestStore, accountStore, bus)

	cartHandler := httpapi.NewCartHandler(guestStore, accountStore, catalogClient, merger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpapi.RequestIDMiddleware)
	r.Use(httpapi.SessionMiddleware)
	r.Use(httpapi.AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api/v1/cart", cartHandler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down storefront...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("storefront stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aingc/stripe-example/internal/catalog"
	"github.com/aingc/stripe-example/internal/checkout"
	"github.com/aingc/stripe-example/internal/events"
	"github.com/aingc/stripe-example/internal/httpapi"
	"github.com/aingc/stripe-example/internal/payment"
	"github.com/aingc/stripe-example/internal/telemetry"
)

type Config struct {
	HTTPPort        string
	CatalogSource   string // file | sql | redis
	CatalogPath     string
	DatabaseDriver  string // sqlite | postgres
	DatabaseURL     string
	MigrationsPath  string
	RedisAddr       string
	RedisCatalogKey string
	KafkaBrokers    string
	StripeSecretKey string
	StripeAPIURL    string
	Currency        string
	StaticDir       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "3000"),
		CatalogSource:   getEnv("CATALOG_SOURCE", "file"),
		CatalogPath:     getEnv("CATALOG_PATH", "items.json"),
		DatabaseDriver:  getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:     getEnv("DATABASE_URL", "storefront.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisCatalogKey: getEnv("REDIS_CATALOG_KEY", "storefront:catalog"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripeAPIURL:    getEnv("STRIPE_API_URL", "https://api.stripe.com"),
		Currency:        getEnv("CURRENCY", "usd"),
		StaticDir:       getEnv("STATIC_DIR", "public"),
		RequestTimeout:  30 * time.Second,
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
	telemetry.InitLogger()

	ctx := context.Background()

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdownTracer, err := telemetry.SetupTracer(ctx, "storefront")
		if err != nil {
			log.Fatalf("failed to set up tracing: %v", err)
		}
		defer shutdownTracer(context.Background())
	}

	source, closeSource, err := buildCatalogSource(cfg)
	if err != nil {
		log.Fatalf("failed to set up catalog source: %v", err)
	}
	defer closeSource()

	if cfg.StripeSecretKey == "" {
		log.Fatal("STRIPE_SECRET_KEY is required")
	}
	gateway := payment.NewGateway(payment.Config{
		APIURL:    cfg.StripeAPIURL,
		SecretKey: cfg.StripeSecretKey,
	})
	processor := payment.NewBreaker(gateway)

	svc := checkout.NewService(source, processor, cfg.Currency)

	var publisher *events.Publisher
	if cfg.KafkaBrokers != "" {
		publisher = events.NewPublisher(strings.Split(cfg.KafkaBrokers, ",")...)
		defer publisher.Close()
	}

	metrics := httpapi.NewMetrics()
	handler := httpapi.NewHandler(source, svc, publisher, metrics)
	router := httpapi.NewRouter(handler, metrics, httpapi.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		StaticDir:      cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on :%s (catalog source: %s)", cfg.HTTPPort, cfg.CatalogSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func buildCatalogSource(cfg *Config) (catalog.Source, func(), error) {
	switch cfg.CatalogSource {
	case "file":
		return catalog.NewFileSource(cfg.CatalogPath), func() {}, nil

	case "sql":
		src, err := catalog.NewSQLSource(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := src.RunMigrations(cfg.MigrationsPath); err != nil {
			src.Close()
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return catalog.NewRedisSource(client, cfg.RedisCatalogKey), func() { client.Close() }, nil

	default:
		return nil, nil, errors.New("CATALOG_SOURCE must be file, sql, or redis")
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-scanner/internal/badges"
	"ms-scanner/internal/config"
	"ms-scanner/internal/database/migrations"
	"ms-scanner/internal/kafka"
	"ms-scanner/internal/logger"
	"ms-scanner/internal/models"
	scancache "ms-scanner/internal/scans/cache"
	scansdb "ms-scanner/internal/scans/db"
	"ms-scanner/internal/scans/scan_api"
	scans "ms-scanner/internal/scans/service"
	usersdb "ms-scanner/internal/users/db"
	users "ms-scanner/internal/users/service"
	"ms-scanner/internal/users/user_api"
)

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error

	switch cfg.Database.Driver {
	case "postgres":
		maxRetries := 5
		for i := 0; i < maxRetries; i++ {
			log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
			sqldb, err = sql.Open("postgres", cfg.Database.DSN)
			if err != nil {
				log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
				time.Sleep(2 * time.Second)
				continue
			}

			err = sqldb.Ping()
			if err == nil {
				break
			}

			log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
			if i < maxRetries-1 {
				time.Sleep(2 * time.Second)
			}
		}
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
		}

		sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

		log.Info("DATABASE", "PostgreSQL connection successful")
		bunDB := bun.NewDB(sqldb, pgdialect.New())

		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to run migrations: %v", err))
		}
		return bunDB

	case "sqlite":
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to open SQLite: %v", err))
		}
		bunDB := bun.NewDB(sqldb, sqlitedialect.New())

		// SQLite is the local-dev path; schema comes straight from the models.
		ctx := context.Background()
		tables := []interface{}{(*models.User)(nil), (*models.Activity)(nil), (*models.Scan)(nil)}
		for _, m := range tables {
			if _, err := bunDB.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
				log.Fatal("DATABASE", fmt.Sprintf("Failed to create table for %T: %v", m, err))
			}
		}
		log.Info("DATABASE", "SQLite connection successful")
		return bunDB

	default:
		log.Fatal("CONFIG", fmt.Sprintf("Unknown DB_DRIVER %q (expected postgres or sqlite)", cfg.Database.Driver))
		return nil
	}
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Info("REDIS", "REDIS_ADDR not set, aggregation cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Scanner Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var scanPublisher scans.KafkaPublisher
	var userPublisher users.KafkaPublisher
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		requiredTopics := []string{
			cfg.Kafka.Topics.ScanRecorded,
			cfg.Kafka.Topics.UserUpdated,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}

		publisher := kafka.NewEventPublisher(producer, cfg.Kafka.Topics)
		scanPublisher = publisher
		userPublisher = publisher
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		log.Info("KAFKA", "Kafka disabled, domain events will not be published")
	}

	var frequencyCache scans.FrequencyCache
	if redisClient != nil {
		frequencyCache = scancache.NewFrequencyCache(redisClient, cfg.Redis.CacheTTL)
	}

	scanService := scans.NewScanService(&scansdb.DB{Bun: bunDB}, scanPublisher, frequencyCache)
	badgeGen := badges.NewGenerator(os.Getenv("BADGE_SECRET_KEY"))
	userService := users.NewUserService(&usersdb.DB{Bun: bunDB}, scanService, userPublisher, badgeGen)

	userHandler := user_api.NewHandler(userService, log)
	scanHandler := scan_api.NewHandler(scanService, log)

	log.Info("HTTP", "Setting up router")
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.ListUsers)
		r.Get("/{id}", userHandler.GetUser)
		r.Put("/{id}", userHandler.UpdateUser)
		r.Get("/{id}/badge", userHandler.GetBadge)
	})
	log.Info("ROUTER", "User routes registered under /users")

	r.Put("/scan/{userId}", scanHandler.RecordScan)
	r.Get("/scans", scanHandler.GetScanFrequencies)
	log.Info("ROUTER", "Scan routes registered at /scan/{userId} and /scans")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Scanner Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Scanner Service shutdown complete")
	}
}

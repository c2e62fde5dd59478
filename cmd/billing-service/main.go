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

	"ms-billsplit/internal/billing"
	"ms-billsplit/internal/billing/billing_api"
	billing_db "ms-billsplit/internal/billing/db"
	billkafka "ms-billsplit/internal/billing/kafka"
	rediswrap "ms-billsplit/internal/billing/redis"
	"ms-billsplit/internal/config"
	"ms-billsplit/internal/dashboard"
	dashboard_api "ms-billsplit/internal/dashboard/api"
	dashboard_db "ms-billsplit/internal/dashboard/db"
	"ms-billsplit/internal/database/migrations"
	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/payment"
	"ms-billsplit/internal/tables"
	tables_db "ms-billsplit/internal/tables/db"
	qr "ms-billsplit/internal/tables/qr_generator"
	"ms-billsplit/internal/tables/table_api"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	// --- PostgreSQL ---
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open Postgres: %v", err))
	}
	defer sqldb.Close()

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	// --- Migrations ---
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}

	if cfg.App.SeedData {
		if err := billing_db.Seed(bunDB); err != nil {
			log.Warn("DATABASE", fmt.Sprintf("Seeding sample data failed: %v", err))
		}
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	billLock := rediswrap.NewRedis(redisClient, cfg.Payment.LockTTL)

	// --- Kafka ---
	var events billing.EventPublisher
	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		if err := billkafka.EnsureTopicExists(cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Could not ensure topic %s: %v", cfg.Kafka.Topic, err))
		}
		producer := billkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
	} else {
		log.Warn("KAFKA", "Kafka disabled, bill events will not be published")
	}

	// --- Services ---
	authorizer := payment.NewSimulatedAuthorizer(cfg.Payment.AuthDelay, cfg.Payment.AuthTimeout)

	billService := billing.NewBillService(&billing_db.DB{Bun: bunDB}, billLock, events, authorizer, log)
	billService.LockWait = cfg.Payment.LockWait

	qrGen := qr.NewGenerator(cfg.App.BaseURL)
	tableService := tables.NewTableService(&tables_db.DB{Bun: bunDB}, qrGen, log)
	dashboardService := dashboard.NewDashboardService(&dashboard_db.DB{Bun: bunDB}, log)

	billingHandler := billing_api.NewHandler(billService)
	tableHandler := table_api.NewHandler(tableService, billService)
	dashboardHandler := dashboard_api.NewHandler(dashboardService)

	// --- Router ---
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/tables", tableHandler.ListTables)
		r.Post("/tables", tableHandler.CreateTable)
		r.Get("/tables/{id}", tableHandler.GetTable)
		r.Get("/tables/{id}/qr", tableHandler.GetTableQR)

		r.Get("/bills/table/{tableId}", billingHandler.GetBillByTable)
		r.Get("/bills/{id}", billingHandler.GetBill)
		r.Post("/bills", billingHandler.CreateBill)
		r.Patch("/bills/{id}", billingHandler.UpdateBill)

		r.Get("/bills/{id}/items", billingHandler.GetBillItems)
		r.Post("/bills/{id}/items", billingHandler.AddBillItem)
		r.Patch("/bill-items/{id}", billingHandler.UpdateBillItem)

		r.Post("/payments", billingHandler.CreatePayment)
		r.Get("/payments/bill/{billId}", billingHandler.GetPaymentsByBill)

		r.Get("/dashboard/tables", dashboardHandler.GetTables)
		r.Get("/dashboard/summary", dashboardHandler.GetSummary)

		r.Get("/qr/{tableNumber}/{restaurant}", tableHandler.ResolveQREntry)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Billing service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SERVER", "Server exited gracefully")
}

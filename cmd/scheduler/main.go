package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/zetacard/bnpl-engine/internal/config"
	"github.com/zetacard/bnpl-engine/internal/repository"
	"github.com/zetacard/bnpl-engine/internal/service"
)

func main() {
	log.Println("Starting BNPL scheduler...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	installmentRepo := repository.NewInstallmentRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	cardRepo := repository.NewCardRepository(db)
	userRepo := repository.NewUserRepository(db)

	installmentService := service.NewInstallmentService(installmentRepo, transactionRepo, cardRepo, userRepo, redisClient, cfg)

	c := cron.New(cron.WithSeconds())

	// Daily late-fee sweep (runs at midnight)
	_, err = c.AddFunc("0 0 0 * * *", func() {
		runOverdueSweep(installmentService)
	})
	if err != nil {
		log.Fatalf("Error scheduling overdue sweep job: %v", err)
	}

	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

func runOverdueSweep(installmentService *service.InstallmentService) {
	log.Println("Running daily overdue sweep...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	totals, err := installmentService.RunOverdueSweep(ctx, time.Now())
	if err != nil {
		log.Printf("Overdue sweep failed: %v", err)
		return
	}

	for cardID, total := range totals {
		log.Printf("Card %s has accrued late fees of %s", cardID, total.StringFixed(2))
	}

	log.Printf("Overdue sweep completed: %d cards with overdue installments", len(totals))
}

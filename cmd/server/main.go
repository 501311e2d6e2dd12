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

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/zetacard/bnpl-engine/internal/config"
	"github.com/zetacard/bnpl-engine/internal/handler"
	"github.com/zetacard/bnpl-engine/internal/otp"
	"github.com/zetacard/bnpl-engine/internal/repository"
	"github.com/zetacard/bnpl-engine/internal/service"
	"github.com/zetacard/bnpl-engine/pkg/response"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	cardRepo := repository.NewCardRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	applicationService := service.NewApplicationService(applicationRepo, cardRepo, userRepo, cfg)
	cardService := service.NewCardService(cardRepo, transactionRepo, userRepo)
	transactionService := service.NewTransactionService(cardRepo, transactionRepo, installmentRepo, userRepo)
	installmentService := service.NewInstallmentService(installmentRepo, transactionRepo, cardRepo, userRepo, redisClient, cfg)
	userService := service.NewUserService(userRepo)
	otpStore := otp.NewStore(redisClient, cfg.GetOTPValidity())

	// Initialize handlers
	applicationHandler := handler.NewApplicationHandler(applicationService)
	cardHandler := handler.NewCardHandler(cardService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	installmentHandler := handler.NewInstallmentHandler(installmentService)
	userHandler := handler.NewUserHandler(userService)
	authHandler := handler.NewAuthHandler(otpStore)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(applicationHandler, cardHandler, transactionHandler, installmentHandler, userHandler, authHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	applicationHandler *handler.ApplicationHandler,
	cardHandler *handler.CardHandler,
	transactionHandler *handler.TransactionHandler,
	installmentHandler *handler.InstallmentHandler,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/users", userHandler.Register).Methods("POST")
	api.HandleFunc("/users/me", userHandler.Me).Methods("GET")

	api.HandleFunc("/auth/otp", authHandler.IssueCode).Methods("POST")
	api.HandleFunc("/auth/otp/verify", authHandler.VerifyCode).Methods("POST")

	api.HandleFunc("/applications", applicationHandler.Apply).Methods("POST")
	api.HandleFunc("/applications", applicationHandler.List).Methods("GET")
	api.HandleFunc("/applications/{applicationId}", applicationHandler.Get).Methods("GET")
	api.HandleFunc("/applications/{applicationId}", applicationHandler.Update).Methods("PUT")

	api.HandleFunc("/cards", cardHandler.List).Methods("GET")
	api.HandleFunc("/cards/{cardId}", cardHandler.Get).Methods("GET")
	api.HandleFunc("/cards/{cardId}/status", cardHandler.UpdateStatus).Methods("PUT")
	api.HandleFunc("/cards/{cardId}/limit", cardHandler.UpdateLimit).Methods("PUT")
	api.HandleFunc("/cards/{cardId}/transactions", transactionHandler.History).Methods("GET")
	api.HandleFunc("/cards/{cardId}/installments/overdue", installmentHandler.OverdueByCard).Methods("GET")
	api.HandleFunc("/cards/{cardId}/late-fee", installmentHandler.LateFeeByCard).Methods("GET")

	api.HandleFunc("/transactions/validate-card", transactionHandler.ValidateCard).Methods("POST")
	api.HandleFunc("/transactions", transactionHandler.Create).Methods("POST")
	api.HandleFunc("/transactions/bnpl", transactionHandler.CreateBNPL).Methods("POST")
	api.HandleFunc("/transactions/{transactionId}", transactionHandler.Get).Methods("GET")
	api.HandleFunc("/transactions/{transactionId}", transactionHandler.Update).Methods("PUT")
	api.HandleFunc("/transactions/{transactionId}", transactionHandler.Delete).Methods("DELETE")
	api.HandleFunc("/transactions/{transactionId}/installments", installmentHandler.ByTransaction).Methods("GET")

	api.HandleFunc("/installments", installmentHandler.Create).Methods("POST")
	api.HandleFunc("/installments/{installmentId}", installmentHandler.Get).Methods("GET")
	api.HandleFunc("/installments/{installmentId}", installmentHandler.Update).Methods("PUT")
	api.HandleFunc("/installments/{installmentId}", installmentHandler.Delete).Methods("DELETE")
	api.HandleFunc("/installments/{installmentId}/pay", installmentHandler.Pay).Methods("POST")

	return router
}

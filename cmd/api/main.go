package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/freelance-marketplace/backend/internal/config"
	"github.com/freelance-marketplace/backend/internal/db"
	"github.com/freelance-marketplace/backend/internal/events"
	apphttp "github.com/freelance-marketplace/backend/internal/http"
	"github.com/freelance-marketplace/backend/internal/http/handlers"
	"github.com/freelance-marketplace/backend/internal/payments"
	"github.com/freelance-marketplace/backend/internal/repositories"
	"github.com/freelance-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	bidRepo := repositories.NewBidRepo(pool)
	contractRepo := repositories.NewContractRepo(pool)
	walletRepo := repositories.NewWalletRepo(pool)
	transactionRepo := repositories.NewTransactionRepo(pool)
	chatRepo := repositories.NewChatRepo(pool)
	milestoneRepo := repositories.NewMilestoneRepo(pool)
	depositOrderRepo := repositories.NewDepositOrderRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	txRunner := db.NewTxRunner(pool)
	gateway := payments.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout, log)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration, log)
	withdrawMin, err := decimal.NewFromString(cfg.WithdrawalMin)
	if err != nil {
		log.Warn("invalid WITHDRAWAL_MIN, using 1.00", zap.String("value", cfg.WithdrawalMin))
		withdrawMin = decimal.New(1, 0)
	}
	walletService := services.NewWalletService(txRunner, walletRepo, transactionRepo, gateway, depositOrderRepo, auditRepo, publisher, cfg.GatewayCurrency, withdrawMin, log)
	chatService := services.NewChatService(chatRepo, publisher, log)
	projectService := services.NewProjectService(projectRepo, auditRepo, log)
	bidService := services.NewBidService(bidRepo, projectRepo, contractRepo, walletService, chatService, publisher, auditRepo, log)
	milestoneService := services.NewMilestoneService(milestoneRepo, contractRepo, chatService, publisher, auditRepo, log)
	contractService := services.NewContractService(contractRepo, projectRepo, milestoneRepo, walletService, chatService, publisher, auditRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	userHandler := handlers.NewUserHandler(authService, log)
	projectHandler := handlers.NewProjectHandler(projectService, log)
	bidHandler := handlers.NewBidHandler(bidService, log)
	contractHandler := handlers.NewContractHandler(contractService, log)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService, log)
	chatHandler := handlers.NewChatHandler(chatService, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, projectHandler, bidHandler, contractHandler, milestoneHandler, chatHandler, walletHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

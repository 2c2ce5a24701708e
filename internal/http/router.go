package http

import (
	"time"

	"github.com/freelance-marketplace/backend/internal/config"
	"github.com/freelance-marketplace/backend/internal/http/handlers"
	"github.com/freelance-marketplace/backend/internal/middleware"
	"github.com/freelance-marketplace/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	projectHandler *handlers.ProjectHandler,
	bidHandler *handlers.BidHandler,
	contractHandler *handlers.ContractHandler,
	milestoneHandler *handlers.MilestoneHandler,
	chatHandler *handlers.ChatHandler,
	walletHandler *handlers.WalletHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)

	// Projects
	protected.Post("/projects", middleware.RequirePermission(rbac.PermCreateProject), projectHandler.CreateProject)
	protected.Get("/projects", projectHandler.ListProjects)
	protected.Get("/projects/:id", projectHandler.GetProject)
	protected.Delete("/projects/:id", projectHandler.CancelProject)
	protected.Get("/projects/:id/bids", bidHandler.ListProjectBids)

	// Bids
	protected.Post("/bids", middleware.RequirePermission(rbac.PermPlaceBid), bidHandler.PlaceBid)
	protected.Post("/bids/:id/accept", middleware.RequirePermission(rbac.PermAcceptBid), bidHandler.AcceptBid)
	protected.Post("/bids/:id/reject", middleware.RequirePermission(rbac.PermRejectBid), bidHandler.RejectBid)
	protected.Post("/bids/:id/withdraw", middleware.RequirePermission(rbac.PermPlaceBid), bidHandler.WithdrawBid)

	// Contracts
	protected.Get("/contracts", contractHandler.ListContracts)
	protected.Get("/contracts/:id", contractHandler.GetContract)
	protected.Post("/contracts/:id/complete", middleware.RequirePermission(rbac.PermCompleteContract), contractHandler.CompleteContract)
	protected.Get("/contracts/:id/milestones", milestoneHandler.ListContractMilestones)

	// Milestones
	protected.Post("/milestones", middleware.RequirePermission(rbac.PermCreateMilestone), milestoneHandler.CreateMilestone)
	protected.Patch("/milestones/:id/status", middleware.RequirePermission(rbac.PermUpdateMilestone), milestoneHandler.UpdateMilestoneStatus)

	// Chat
	protected.Get("/chats", chatHandler.ListRooms)
	protected.Get("/chats/:id", chatHandler.GetRoom)
	protected.Get("/chats/:id/messages", chatHandler.GetMessages)
	protected.Post("/chats/:id/messages", chatHandler.SendMessage)
	protected.Post("/chats/:id/read", chatHandler.MarkRead)

	// Wallet
	protected.Get("/wallet", walletHandler.GetWallet)
	protected.Post("/wallet/deposit", middleware.RequirePermission(rbac.PermDeposit), walletHandler.InitiateDeposit)
	protected.Post("/wallet/deposit/confirm", middleware.RequirePermission(rbac.PermDeposit), walletHandler.ConfirmDeposit)
	protected.Post("/wallet/withdraw", middleware.RequirePermission(rbac.PermWithdraw), walletHandler.Withdraw)
	protected.Get("/wallet/transactions", walletHandler.ListTransactions)
	protected.Get("/wallet/earnings", walletHandler.GetEarnings)

	// WebSocket (token via query param)
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}

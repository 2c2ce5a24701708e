package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freelance-marketplace/backend/internal/config"
	"github.com/freelance-marketplace/backend/internal/db"
	"github.com/freelance-marketplace/backend/internal/events"
	"github.com/freelance-marketplace/backend/internal/repositories"
	"github.com/freelance-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

const sweepBatchSize = 500

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	chatRepo := repositories.NewChatRepo(pool)
	milestoneRepo := repositories.NewMilestoneRepo(pool)
	contractRepo := repositories.NewContractRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	chatService := services.NewChatService(chatRepo, publisher, log)
	milestoneService := services.NewMilestoneService(milestoneRepo, contractRepo, chatService, publisher, auditRepo, log)

	log.Info("worker started",
		zap.Duration("overdue_interval", cfg.OverdueSweepInterval),
		zap.Duration("archive_interval", cfg.ArchiveSweepInterval),
	)

	overdueTicker := time.NewTicker(cfg.OverdueSweepInterval)
	archiveTicker := time.NewTicker(cfg.ArchiveSweepInterval)
	defer overdueTicker.Stop()
	defer archiveTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-overdueTicker.C:
			runOverdueSweep(ctx, milestoneService, log)
		case <-archiveTicker.C:
			runArchivalSweep(ctx, chatService, cfg.ChatArchiveGracePeriod, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		}
	}
}

func runOverdueSweep(ctx context.Context, svc *services.MilestoneService, log *zap.Logger) {
	flagged, err := svc.RunOverdueSweep(ctx, sweepBatchSize)
	if err != nil {
		log.Error("overdue sweep failed", zap.Error(err))
		return
	}
	log.Debug("overdue sweep done", zap.Int("flagged", flagged))
}

func runArchivalSweep(ctx context.Context, svc *services.ChatService, gracePeriod time.Duration, log *zap.Logger) {
	archived, err := svc.RunArchivalSweep(ctx, gracePeriod, sweepBatchSize)
	if err != nil {
		log.Error("archival sweep failed", zap.Error(err))
		return
	}
	log.Debug("archival sweep done", zap.Int("archived", archived))
}

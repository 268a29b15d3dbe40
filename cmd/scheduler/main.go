package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/model"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/training"
	"leadqual_backend/internal/scheduler"
	"leadqual_backend/platform/cache"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/db"
	"leadqual_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	var repo *repository.Repository
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
		repo = repository.New(pool)
	} else {
		log.Warn("DATABASE_URL not configured; retraining uses synthetic data only")
	}

	eventBus := events.NewInMemoryBus(log)

	var featureCache cache.Cache = cache.NewNoOp()
	if cfg.IsRedisEnabled() {
		redisCache := cache.NewRedis(cfg, log)
		defer redisCache.Close()
		featureCache = redisCache
	}

	engineer := features.NewEngineer(featureCache, log)
	mdl := model.New(cfg.GetModelDir(), engineer, log)
	if err := mdl.Load(ctx); err != nil {
		log.Error("failed to load model artifacts", "error", err)
		panic("failed to load model artifacts: " + err.Error())
	}

	var outcomes training.OutcomeSource
	if repo != nil {
		outcomes = repo
	}
	trainer := training.New(mdl, outcomes, cfg, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, trainer, repo, eventBus, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer client.Close()

	go enqueuePeriodic(ctx, client, cfg.GetRetrainCheckInterval(), log)

	worker.Run(ctx)
	log.Info("scheduler stopped")
}

// enqueuePeriodic submits the recurring maintenance tasks. The first
// round fires immediately so a fresh deployment trains without waiting
// a full interval.
func enqueuePeriodic(ctx context.Context, client *scheduler.Client, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	enqueue := func() {
		if err := client.EnqueueRetrainCheck(ctx, scheduler.RetrainCheckPayload{Reason: "periodic"}); err != nil {
			log.Error("enqueue retrain check failed", "error", err)
		}
		if err := client.EnqueueRescoreLeads(ctx, scheduler.RescoreLeadsPayload{OlderThanHours: 24, Limit: 100}); err != nil {
			log.Error("enqueue rescore failed", "error", err)
		}
	}

	enqueue()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/training"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	trainer *training.Service
	repo    *repository.Repository // nil without a database
	bus     events.Bus
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, trainer *training.Service, repo *repository.Repository, bus events.Bus, log *logger.Logger) (*Worker, error) {
	if cfg.GetRedisAddr() == "" {
		return nil, fmt.Errorf("redis address not configured")
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(redisClientOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		trainer: trainer,
		repo:    repo,
		bus:     bus,
		log:     log,
	}

	mux.HandleFunc(TaskRetrainCheck, w.handleRetrainCheck)
	mux.HandleFunc(TaskRescoreLeads, w.handleRescoreLeads)

	return w, nil
}

func (w *Worker) handleRetrainCheck(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRetrainCheckPayload(task)
	if err != nil {
		return err
	}

	w.log.ModelEvent("retrain_check", "reason", payload.Reason)
	return w.trainer.RetrainIfNeeded(ctx)
}

// handleRescoreLeads finds leads whose latest snapshot has aged out and
// publishes their IDs. The conversation state lives upstream, so the
// worker announces staleness rather than rescoring directly.
func (w *Worker) handleRescoreLeads(ctx context.Context, task *asynq.Task) error {
	if w.repo == nil || w.bus == nil {
		return nil
	}

	payload, err := ParseRescoreLeadsPayload(task)
	if err != nil {
		return err
	}
	if payload.OlderThanHours < 1 {
		payload.OlderThanHours = 24
	}

	cutoff := time.Now().Add(-time.Duration(payload.OlderThanHours) * time.Hour)
	leadIDs, err := w.repo.StaleLeadIDs(ctx, cutoff, payload.Limit)
	if err != nil {
		return err
	}
	if len(leadIDs) == 0 {
		return nil
	}

	w.log.Info("stale lead scores found", "count", len(leadIDs), "older_than_hours", payload.OlderThanHours)
	return w.bus.PublishSync(ctx, events.LeadScoreStale{
		BaseEvent: events.NewBaseEvent(),
		LeadIDs:   leadIDs,
	})
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

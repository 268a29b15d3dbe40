package scheduler

import (
	"context"
	"fmt"

	"leadqual_backend/platform/config"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	if cfg.GetRedisAddr() == "" {
		return nil, fmt.Errorf("redis address not configured")
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(redisClientOpt(cfg)),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueRetrainCheck(ctx context.Context, payload RetrainCheckPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewRetrainCheckTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func (c *Client) EnqueueRescoreLeads(ctx context.Context, payload RescoreLeadsPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewRescoreLeadsTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(cfg config.SchedulerConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	}
}

// Package worker consumes the task event stream and maintains per-owner
// activity counters in Redis. One consumer per process; scale by running more
// replicas (the consumer group shares partitions).
package worker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"taskflow/internal/cache"
	"taskflow/internal/config"
	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

const consumerGroup = "taskflow-activity"

// Run starts the Kafka consumer loop. It blocks until ctx is cancelled.
func Run(ctx context.Context, c *cache.Cache) {
	cfg := config.Get()
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info(ctx, "Worker disabled (no Kafka brokers)")
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  consumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Kafka consumer started", "topic", cfg.KafkaTopic, "group", consumerGroup)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, c, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid a poison pill blocking the partition.
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, c *cache.Cache, payload []byte) error {
	var ev models.TaskEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.UserID == "" || ev.Action == "" {
		return nil
	}
	c.IncrActivity(ctx, ev.UserID, ev.Action)
	return nil
}

// Package queue publishes task activity events to Kafka after mutations have
// durably committed. The stream is observability fan-out, never part of the
// mutation path.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"taskflow/internal/config"
	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

// Publisher writes task events. A Publisher with no brokers is a no-op.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates the Kafka producer from config.
func NewPublisher(ctx context.Context) *Publisher {
	cfg := config.Get()
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info(ctx, "Kafka disabled (no brokers configured)")
		return &Publisher{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info(ctx, "Kafka producer initialized", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	return &Publisher{writer: w}
}

// EnsureTopic creates the events topic with configured partitions (idempotent).
// Failure is non-fatal; the app runs without the event stream.
func (p *Publisher) EnsureTopic(ctx context.Context) {
	cfg := config.Get()
	if p.writer == nil {
		return
	}
	conn, err := kafka.Dial("tcp", cfg.KafkaBrokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.KafkaTopic,
		NumPartitions:     cfg.KafkaPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", cfg.KafkaTopic, "partitions", cfg.KafkaPartitions)
}

// PublishTaskEvent publishes one event. Errors are logged and swallowed;
// the mutation has already committed and must not be affected.
func (p *Publisher) PublishTaskEvent(ctx context.Context, ev *models.TaskEvent) {
	if p.writer == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error(ctx, "Marshal task event failed", "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Warn(ctx, "Publish task event failed", "error", err, "action", ev.Action)
	}
}

// Close flushes and closes the producer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

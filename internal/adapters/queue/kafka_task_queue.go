package queue

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/platform/metrics"
	"parcel-pricing-service/internal/ports"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTaskQueue produces task envelopes to one topic per logical queue.
type KafkaTaskQueue struct {
	writer       messageWriter
	statuses     ports.TaskStatusStore
	topicPrefix  string
	defaultQueue string
	log          *zap.Logger
	metrics      *metrics.Metrics
}

var _ ports.TaskQueue = (*KafkaTaskQueue)(nil)

type KafkaConfig struct {
	Brokers      []string
	TopicPrefix  string
	GroupID      string
	DefaultQueue string
}

// NewKafkaWriter builds a writer that takes the topic from each message.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewKafkaTaskQueue(
	writer messageWriter,
	statuses ports.TaskStatusStore,
	cfg KafkaConfig,
	log *zap.Logger,
	m *metrics.Metrics,
) *KafkaTaskQueue {
	if cfg.DefaultQueue == "" {
		cfg.DefaultQueue = "default"
	}
	return &KafkaTaskQueue{
		writer:       writer,
		statuses:     statuses,
		topicPrefix:  cfg.TopicPrefix,
		defaultQueue: cfg.DefaultQueue,
		log:          log.Named("kafka_task_queue"),
		metrics:      m,
	}
}

func (q *KafkaTaskQueue) Send(ctx context.Context, taskName string, payload map[string]string, queue string) (string, error) {
	if taskName == "" {
		return "", fmt.Errorf("send task: %w: task name is empty", domain.ErrDispatch)
	}
	if queue == "" {
		queue = q.defaultQueue
	}

	msg := newMessage(taskName, payload, queue)
	value, err := encodeMessage(msg)
	if err != nil {
		return "", fmt.Errorf("send task %s: %w: %w", taskName, domain.ErrDispatch, err)
	}

	recordPending(ctx, q.statuses, q.log, msg)

	topic := TopicName(q.topicPrefix, queue)
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(msg.ID),
		Value: value,
	})
	if err != nil {
		recordUndelivered(ctx, q.statuses, q.log, msg, err)
		return "", fmt.Errorf("send task %s to %s: %w: %w", taskName, topic, domain.ErrDispatch, err)
	}

	q.metrics.TaskDispatched(taskName, queue)
	q.log.Info("task dispatched",
		zap.String("task_id", msg.ID),
		zap.String("task", taskName),
		zap.String("topic", topic),
	)
	return msg.ID, nil
}


func (q *KafkaTaskQueue) Close() error {
	if q.writer == nil {
		return nil
	}
	if err := q.writer.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"parcel-pricing-service/internal/platform/metrics"
	"parcel-pricing-service/internal/ports"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaReader builds a consumer-group reader with synchronous commits.
func NewKafkaReader(cfg KafkaConfig, queue string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          TopicName(cfg.TopicPrefix, queue),
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}

// KafkaTaskConsumer runs tasks read from one topic. The offset of a message is
// committed only after its handler returned, so a crash mid-task redelivers it.
type KafkaTaskConsumer struct {
	reader     messageReader
	runner     *taskRunner
	log        *zap.Logger
	retryDelay time.Duration

	wg sync.WaitGroup
}

func NewKafkaTaskConsumer(
	reader messageReader,
	handler TaskHandler,
	statuses ports.TaskStatusStore,
	log *zap.Logger,
	m *metrics.Metrics,
) *KafkaTaskConsumer {
	log = log.Named("kafka_task_consumer")
	return &KafkaTaskConsumer{
		reader: reader,
		runner: &taskRunner{
			handler:  handler,
			statuses: statuses,
			log:      log,
			observe:  m.TaskProcessed,
		},
		log:        log,
		retryDelay: time.Second,
	}
}

// Start consumes in a background goroutine until ctx is cancelled.
func (c *KafkaTaskConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Run(ctx)
	}()
}

// Run blocks until ctx is cancelled or the reader is closed.
func (c *KafkaTaskConsumer) Run(ctx context.Context) {
	c.log.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.log.Info("consumer shutting down")
				return
			}
			c.log.Warn("fetch failed, retrying", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
			continue
		}

		c.handle(ctx, msg)
	}
}

func (c *KafkaTaskConsumer) handle(ctx context.Context, msg kafka.Message) {
	task, err := decodeMessage(msg.Value)
	if err != nil {
		// Redelivery cannot fix a malformed envelope.
		c.log.Error("dropping undecodable message",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
	} else {
		c.runner.run(ctx, task)
	}

	// An uncommitted offset is redelivered after a rebalance.
	if err := c.reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
		c.log.Error("commit failed",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
	}
}

// Stop closes the reader and waits for the consumer goroutine.
func (c *KafkaTaskConsumer) Stop() error {
	err := c.reader.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("close kafka reader: %w", err)
	}
	return nil
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/platform/metrics"
	"parcel-pricing-service/internal/ports"
	"sync"

	"go.uber.org/zap"
)

const defaultMemoryQueueSize = 64

// MemoryTaskQueue is an in-process broker for single-binary local runs and
// tests. Envelopes go through the same JSON encoding as on Kafka.
type MemoryTaskQueue struct {
	messages     chan []byte
	statuses     ports.TaskStatusStore
	defaultQueue string
	log          *zap.Logger
	metrics      *metrics.Metrics

	mu     sync.RWMutex
	closed bool
}

var _ ports.TaskQueue = (*MemoryTaskQueue)(nil)

func NewMemoryTaskQueue(
	statuses ports.TaskStatusStore,
	defaultQueue string,
	size int,
	log *zap.Logger,
	m *metrics.Metrics,
) *MemoryTaskQueue {
	if size <= 0 {
		size = defaultMemoryQueueSize
	}
	if defaultQueue == "" {
		defaultQueue = "default"
	}
	return &MemoryTaskQueue{
		messages:     make(chan []byte, size),
		statuses:     statuses,
		defaultQueue: defaultQueue,
		log:          log.Named("memory_task_queue"),
		metrics:      m,
	}
}

// Send fails with domain.ErrDispatch when the buffer is full or the queue is closed.
func (q *MemoryTaskQueue) Send(ctx context.Context, taskName string, payload map[string]string, queue string) (string, error) {
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

	if err := q.enqueue(value); err != nil {
		recordUndelivered(ctx, q.statuses, q.log, msg, err)
		return "", fmt.Errorf("send task %s: %w: %w", taskName, domain.ErrDispatch, err)
	}

	q.metrics.TaskDispatched(taskName, queue)
	q.log.Info("task dispatched", zap.String("task_id", msg.ID), zap.String("task", taskName))
	return msg.ID, nil
}

func (q *MemoryTaskQueue) enqueue(value []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.New("queue closed")
	}

	select {
	case q.messages <- value:
		return nil
	default:
		return errors.New("queue full")
	}
}

// Run executes queued tasks one at a time until ctx is cancelled or the queue is closed.
func (q *MemoryTaskQueue) Run(ctx context.Context, handler TaskHandler) {
	runner := &taskRunner{
		handler:  handler,
		statuses: q.statuses,
		log:      q.log,
		observe:  q.metrics.TaskProcessed,
	}
	for {
		select {
		case <-ctx.Done():
			return
		case value, ok := <-q.messages:
			if !ok {
				return
			}
			task, err := decodeMessage(value)
			if err != nil {
				q.log.Error("dropping undecodable message", zap.Error(err))
				continue
			}
			runner.run(ctx, task)
		}
	}
}

// Close stops accepting tasks; Run drains what is buffered and returns.
func (q *MemoryTaskQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.messages)
	}
	return nil
}

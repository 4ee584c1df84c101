package worker

import (
	"context"
	"parcel-pricing-service/internal/ports"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler enqueues the price recomputation task once at start and then on
// every tick. Running it in more than one process only duplicates sweeps,
// which the sweep tolerates.
type Scheduler struct {
	queue    ports.TaskQueue
	interval time.Duration
	taskQ    string
	log      *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

func NewScheduler(queue ports.TaskQueue, interval time.Duration, taskQueue string, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	return &Scheduler{
		queue:    queue,
		interval: interval,
		taskQ:    taskQueue,
		log:      log.Named("scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.log.Info("sweep scheduler started", zap.Duration("interval", s.interval))
}

// Stop waits for the loop to exit or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("sweep scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.enqueue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(ctx)
		}
	}
}

func (s *Scheduler) enqueue(ctx context.Context) {
	id, err := s.queue.Send(ctx, TaskRecomputeDeliveryPrices, nil, s.taskQ)
	if err != nil {
		s.log.Error("failed to enqueue price recomputation", zap.Error(err))
		return
	}
	s.log.Debug("price recomputation enqueued", zap.String("task_id", id))
}

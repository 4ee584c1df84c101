package worker

import (
	"context"
	"errors"
	"parcel-pricing-service/internal/adapters/queue"
	"parcel-pricing-service/internal/adapters/repositories"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"parcel-pricing-service/internal/services"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedRate struct{}

func (fixedRate) CurrentOrFallback(ctx context.Context) decimal.Decimal { return decimal.NewFromInt(90) }

type recordingQueue struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (q *recordingQueue) Send(ctx context.Context, taskName string, payload map[string]string, queue string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.names = append(q.names, taskName)
	return "id", nil
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.names)
}

func newDispatcher(t *testing.T) (*Dispatcher, *repositories.MemoryParcelRepository) {
	t.Helper()
	repo := repositories.NewMemoryParcelRepository([]domain.ParcelType{{ID: 1, Name: "Clothing"}})
	d := NewDispatcher()
	RegisterTasks(d, services.NewPriceRecomputer(repo, fixedRate{}, 0, zap.NewNop(), nil))
	return d, repo
}

func TestPing(t *testing.T) {
	d, _ := newDispatcher(t)

	out, err := d.Handle(context.Background(), ports.TaskMessage{
		Name: TaskPing, Payload: map[string]string{"session_id": "S1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pong for session S1", out)

	_, err = d.Handle(context.Background(), ports.TaskMessage{Name: TaskPing})
	assert.Error(t, err)
}

func TestDispatcherUnknownTask(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Handle(context.Background(), ports.TaskMessage{Name: "nope"})
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.Equal(t, []string{TaskPing, TaskRecomputeDeliveryPrices}, d.Names())
	assert.Panics(t, func() { d.Register(TaskPing, Ping) })
}

func TestRecomputeTaskPricesParcels(t *testing.T) {
	d, repo := newDispatcher(t)
	ctx := context.Background()

	p, err := domain.NewParcel("Shirt", decimal.NewFromInt(2), domain.ParcelType{ID: 1}, decimal.NewFromInt(10), "S1")
	require.NoError(t, err)
	_, err = repo.Save(ctx, p)
	require.NoError(t, err)

	out, err := d.Handle(ctx, ports.TaskMessage{ID: "run-1", Name: TaskRecomputeDeliveryPrices})
	require.NoError(t, err)
	assert.Equal(t, "priced=1 failed=0 selected=1", out)
}

func TestRecomputeThroughMemoryQueue(t *testing.T) {
	d, repo := newDispatcher(t)
	ctx := context.Background()

	p, err := domain.NewParcel("Shirt", decimal.NewFromInt(2), domain.ParcelType{ID: 1}, decimal.NewFromInt(10), "S1")
	require.NoError(t, err)
	_, err = repo.Save(ctx, p)
	require.NoError(t, err)

	q := queue.NewMemoryTaskQueue(nil, "", 4, zap.NewNop(), nil)
	_, err = q.Send(ctx, TaskRecomputeDeliveryPrices, nil, "")
	require.NoError(t, err)
	require.NoError(t, q.Close())
	q.Run(ctx, d)

	left, err := repo.ListUnpriced(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSchedulerEnqueuesAtStartAndOnTick(t *testing.T) {
	q := &recordingQueue{}
	s := NewScheduler(q, 20*time.Millisecond, "", zap.NewNop())

	s.Start(context.Background())
	s.Start(context.Background())
	require.Eventually(t, func() bool { return q.count() >= 3 }, 2*time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))

	n := q.count()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, q.count())
	for _, name := range q.names {
		assert.Equal(t, TaskRecomputeDeliveryPrices, name)
	}
}

func TestSchedulerSurvivesDispatchErrors(t *testing.T) {
	q := &recordingQueue{err: errors.New("broker down")}
	s := NewScheduler(q, 10*time.Millisecond, "", zap.NewNop())

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	assert.Zero(t, q.count())
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	taskKeyPrefix = "task:"
	// Statuses are kept for half a day, then polling reports not found.
	DefaultTaskStatusTTL = 12 * time.Hour
)

// RedisTaskStatusStore keeps the last known state of each task in a Redis hash.
type RedisTaskStatusStore struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ ports.TaskStatusStore = (*RedisTaskStatusStore)(nil)

func NewRedisTaskStatusStore(client *redis.Client) *RedisTaskStatusStore {
	return &RedisTaskStatusStore{Client: client, TTL: DefaultTaskStatusTTL}
}

func (s *RedisTaskStatusStore) SetStatus(ctx context.Context, status ports.TaskStatus) error {
	if s.Client == nil {
		return errors.New("task status store: client is nil")
	}
	if status.TaskID == "" {
		return errors.New("task status store: task id must not be empty")
	}
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}

	key := taskKeyPrefix + status.TaskID
	fields := map[string]any{
		"name":       status.Name,
		"state":      status.State,
		"result":     status.Result,
		"error":      status.Error,
		"updated_at": status.UpdatedAt.Format(time.RFC3339Nano),
	}

	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("task status store: set %s: %w", status.TaskID, err)
	}
	return nil
}

func (s *RedisTaskStatusStore) GetStatus(ctx context.Context, taskID string) (ports.TaskStatus, error) {
	if s.Client == nil {
		return ports.TaskStatus{}, errors.New("task status store: client is nil")
	}

	fields, err := s.Client.HGetAll(ctx, taskKeyPrefix+taskID).Result()
	if err != nil {
		return ports.TaskStatus{}, fmt.Errorf("task status store: get %s: %w", taskID, err)
	}
	if len(fields) == 0 {
		return ports.TaskStatus{}, fmt.Errorf("task status store: get %s: %w", taskID, domain.ErrNotFound)
	}

	status := ports.TaskStatus{
		TaskID: taskID,
		Name:   fields["name"],
		State:  fields["state"],
		Result: fields["result"],
		Error:  fields["error"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		status.UpdatedAt = ts
	}
	return status, nil
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskHandler executes a decoded task and returns its textual result.
type TaskHandler interface {
	Handle(ctx context.Context, msg ports.TaskMessage) (string, error)
}

type HandlerFunc func(ctx context.Context, msg ports.TaskMessage) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, msg ports.TaskMessage) (string, error) {
	return f(ctx, msg)
}

func newMessage(taskName string, payload map[string]string, queue string) ports.TaskMessage {
	if payload == nil {
		payload = map[string]string{}
	}
	return ports.TaskMessage{
		ID:         uuid.NewString(),
		Name:       taskName,
		Queue:      queue,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
}

func encodeMessage(msg ports.TaskMessage) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", msg.ID, err)
	}
	return b, nil
}

func decodeMessage(b []byte) (ports.TaskMessage, error) {
	var msg ports.TaskMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return ports.TaskMessage{}, fmt.Errorf("decode task: %w", err)
	}
	if msg.ID == "" || msg.Name == "" {
		return ports.TaskMessage{}, errors.New("decode task: id and name are required")
	}
	return msg, nil
}

// recordPending is written before the message leaves so a fast consumer's
// STARTED is never overwritten.
func recordPending(ctx context.Context, statuses ports.TaskStatusStore, log *zap.Logger, msg ports.TaskMessage) {
	if statuses == nil {
		return
	}
	pending := ports.TaskStatus{TaskID: msg.ID, Name: msg.Name, State: ports.TaskPending, UpdatedAt: msg.EnqueuedAt}
	if err := statuses.SetStatus(ctx, pending); err != nil {
		log.Warn("pending status not recorded", zap.String("task_id", msg.ID), zap.Error(err))
	}
}

// recordUndelivered replaces PENDING with FAILURE for a message the broker refused.
func recordUndelivered(ctx context.Context, statuses ports.TaskStatusStore, log *zap.Logger, msg ports.TaskMessage, cause error) {
	if statuses == nil {
		return
	}
	status := ports.TaskStatus{
		TaskID:    msg.ID,
		Name:      msg.Name,
		State:     ports.TaskFailure,
		Error:     "dispatch failed: " + cause.Error(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := statuses.SetStatus(context.WithoutCancel(ctx), status); err != nil {
		log.Warn("failure status not recorded", zap.String("task_id", msg.ID), zap.Error(err))
	}
}

// TopicName maps a logical queue to its broker topic.
func TopicName(prefix, queue string) string {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return queue
	}
	return prefix + "." + queue
}

// taskRunner records the lifecycle of a task around its handler.
// Status store failures are logged; they never change the task outcome.
type taskRunner struct {
	handler  TaskHandler
	statuses ports.TaskStatusStore
	log      *zap.Logger
	observe  func(task, state string)
}

func (r *taskRunner) run(ctx context.Context, msg ports.TaskMessage) {
	log := r.log.With(zap.String("task_id", msg.ID), zap.String("task", msg.Name))
	r.record(ctx, log, ports.TaskStatus{TaskID: msg.ID, Name: msg.Name, State: ports.TaskStarted})

	start := time.Now()
	result, err := r.handler.Handle(ctx, msg)

	status := ports.TaskStatus{TaskID: msg.ID, Name: msg.Name, State: ports.TaskSuccess, Result: result}
	if err != nil {
		status.State = ports.TaskFailure
		status.Error = err.Error()
		log.Error("task failed", zap.Duration("dur", time.Since(start)), zap.Error(err))
	} else {
		log.Info("task succeeded", zap.Duration("dur", time.Since(start)), zap.String("result", result))
	}

	// The handler may have consumed ctx; the final state is still worth storing.
	r.record(context.WithoutCancel(ctx), log, status)
	if r.observe != nil {
		r.observe(msg.Name, status.State)
	}
}

func (r *taskRunner) record(ctx context.Context, log *zap.Logger, status ports.TaskStatus) {
	if r.statuses == nil {
		return
	}
	status.UpdatedAt = time.Now().UTC()
	if err := r.statuses.SetStatus(ctx, status); err != nil {
		log.Warn("task status not recorded", zap.String("state", status.State), zap.Error(err))
	}
}

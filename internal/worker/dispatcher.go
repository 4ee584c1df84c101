// Package worker executes background tasks delivered by the task queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/ports"
	"sort"
)

var ErrUnknownTask = errors.New("unknown task")

type Handler func(ctx context.Context, msg ports.TaskMessage) (string, error)

// Dispatcher routes a task message to the handler registered under its name.
// It is populated by the composition root and read-only afterwards.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register panics on a duplicate name; wiring mistakes surface at startup.
func (d *Dispatcher) Register(name string, h Handler) {
	if _, dup := d.handlers[name]; dup {
		panic(fmt.Sprintf("worker: task %q registered twice", name))
	}
	d.handlers[name] = h
}

func (d *Dispatcher) Handle(ctx context.Context, msg ports.TaskMessage) (string, error) {
	h, ok := d.handlers[msg.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, msg.Name)
	}
	return h(ctx, msg)
}

func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

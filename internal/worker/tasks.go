package worker

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/ports"
	"parcel-pricing-service/internal/services"
)

const (
	TaskRecomputeDeliveryPrices = "parcels.recompute_delivery_prices"
	TaskPing                    = "parcels.ping"
)

// RegisterTasks binds every task the service knows to its handler.
func RegisterTasks(d *Dispatcher, recomputer *services.PriceRecomputer) {
	d.Register(TaskRecomputeDeliveryPrices, RecomputeHandler(recomputer))
	d.Register(TaskPing, Ping)
}

func RecomputeHandler(recomputer *services.PriceRecomputer) Handler {
	return func(ctx context.Context, msg ports.TaskMessage) (string, error) {
		res, err := recomputer.Run(ctx, msg.ID)
		if err != nil {
			return "", err
		}
		return res.String(), nil
	}
}

// Ping is a liveness task for the whole dispatch path.
func Ping(ctx context.Context, msg ports.TaskMessage) (string, error) {
	sessionID := msg.Payload["session_id"]
	if sessionID == "" {
		return "", errors.New("ping: session_id is required")
	}
	return fmt.Sprintf("pong for session %s", sessionID), nil
}

package obs

import (
	"time"

	"go.uber.org/zap"
)

// Time logs the duration of op when the returned func is deferred with the
// address of the caller's named error. The logger is expected to carry the
// correlation fields (request_id, session_id) already.
func Time(log *zap.Logger, op string) func(errp *error) {
	start := time.Now()
	log.Debug("call started", zap.String("op", op))

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Warn("call failed", zap.String("op", op), zap.Duration("dur", dur), zap.Error(*errp))
			return
		}
		log.Info("call finished", zap.String("op", op), zap.Duration("dur", dur))
	}
}

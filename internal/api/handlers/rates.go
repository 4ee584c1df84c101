package handlers

import (
	"context"
	"net/http"
	"parcel-pricing-service/internal/api/dto"
	"time"

	"go.uber.org/zap"
)

type RateHandler struct {
	Rates   RateReader
	Timeout time.Duration
	Log     *zap.Logger
}

// USD reports the current rate; 503 while the source is unreachable and nothing is cached.
func (h *RateHandler) USD(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultRateLookupTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	rate, err := h.Rates.Current(ctx)
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}
	writeJSON(h.Log, w, r, http.StatusOK, dto.RateResponse{Currency: "USD", Rate: rate})
}

package api

import (
	"net/http"
	"parcel-pricing-service/internal/api/handlers"
	"parcel-pricing-service/internal/platform/metrics"
	"parcel-pricing-service/internal/ports"
	"parcel-pricing-service/internal/services"
	"time"

	"go.uber.org/zap"
)

type Deps struct {
	Parcels      *services.ParcelService
	Rates        handlers.RateReader
	RateTimeout  time.Duration
	Queue        ports.TaskQueue
	Statuses     ports.TaskStatusStore
	Metrics      *metrics.Metrics
	HealthChecks map[string]handlers.Pinger
	CookieName   string
	SecureCookie bool
	Log          *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	if d.CookieName == "" {
		d.CookieName = "session_id"
	}
	log := d.Log.Named("http")
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Checks: d.HealthChecks, Log: log}
	parcels := &handlers.ParcelHandler{
		Service:      d.Parcels,
		Rates:        d.Rates,
		RateTimeout:  d.RateTimeout,
		CookieName:   d.CookieName,
		SecureCookie: d.SecureCookie,
		Log:          log,
	}
	rates := &handlers.RateHandler{Rates: d.Rates, Timeout: d.RateTimeout, Log: log}
	tasks := &handlers.TaskHandler{Queue: d.Queue, Statuses: d.Statuses, Log: log}

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("POST /parcels", parcels.Register)
	mux.HandleFunc("GET /parcels", parcels.List)
	mux.HandleFunc("GET /parcels/{id}", parcels.Get)
	mux.HandleFunc("GET /parcel-types", parcels.ListTypes)
	mux.HandleFunc("GET /rates/usd", rates.USD)
	mux.HandleFunc("POST /admin/recompute-prices", tasks.RecomputePrices)
	mux.HandleFunc("POST /tasks/ping", tasks.Ping)
	mux.HandleFunc("GET /tasks/{id}", tasks.Status)
	mux.Handle("GET /metrics", d.Metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(log, recoverMiddleware(log, mux)))
}

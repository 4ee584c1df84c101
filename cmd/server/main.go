package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"parcel-pricing-service/internal/api"
	"parcel-pricing-service/internal/app"
	"parcel-pricing-service/internal/config"
	"parcel-pricing-service/internal/platform/logger"
	"parcel-pricing-service/internal/worker"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// main is the HTTP composition root. With BROKER=memory it also runs the task
// consumer and the sweep scheduler in-process.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logr, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logr.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("startup failed", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logr.Warn("shutdown: close dependencies", zap.Error(err))
		}
	}()

	if a.MemQueue != nil {
		go a.MemQueue.Run(ctx, a.Dispatcher)
		sched := worker.NewScheduler(a.Queue, cfg.SweepInterval, cfg.TaskDefaultQueue, logr)
		sched.Start(ctx)
		defer func() { _ = sched.Stop(context.Background()) }()
	}

	router := api.NewRouter(api.Deps{
		Parcels:      a.Parcels,
		Rates:        a.Rates,
		RateTimeout:  cfg.RateLookupTTL,
		Queue:        a.Queue,
		Statuses:     a.Statuses,
		Metrics:      a.Metrics,
		HealthChecks: a.HealthChecks(),
		CookieName:   cfg.SessionCookieName,
		SecureCookie: cfg.IsProduction(),
		Log:          logr,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", cfg.Store), zap.String("broker", cfg.Broker))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

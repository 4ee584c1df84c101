package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"parcel-pricing-service/internal/app"
	"parcel-pricing-service/internal/config"
	"parcel-pricing-service/internal/platform/logger"
	"parcel-pricing-service/internal/worker"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// main runs the Kafka task consumer, the periodic sweep scheduler and a
// /metrics listener.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Broker == "memory" {
		log.Fatal("BROKER=memory runs tasks inside the server; the worker needs BROKER=kafka")
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

	logr.Info("worker starting", zap.Strings("tasks", a.Dispatcher.Names()))

	consumer := a.NewKafkaConsumer()
	consumer.Start(ctx)

	sched := worker.NewScheduler(a.Queue, cfg.SweepInterval, cfg.TaskDefaultQueue, logr)
	sched.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", a.Metrics.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("metrics listener stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		logr.Warn("scheduler stop", zap.Error(err))
	}
	if err := consumer.Stop(); err != nil {
		logr.Warn("consumer stop", zap.Error(err))
	}
	_ = metricsSrv.Shutdown(shutdownCtx)
}

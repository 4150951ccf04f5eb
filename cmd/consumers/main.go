package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tamasya/cmd/consumers/jobs"
	"tamasya/internal/config"
	"tamasya/internal/consumers"
	"tamasya/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Override NATS client ID for the consumer process
	cfg.NATS.ClientID = "tamasya-consumers"

	slog.Info("starting consumers service")

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		logger.Fatal("failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(); err != nil {
		logger.Fatal("failed to start consumers", "error", err)
	}

	// Background jobs share the consumer process
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	expirationJob := jobs.NewBookingExpirationJob(
		consumerService.Repositories().Bookings,
		consumerService.Services().Bookings,
		cfg.PendingTTL,
	)
	expirationJob.Start(jobCtx)

	completionJob := jobs.NewBookingCompletionJob(consumerService.Repositories().Bookings)
	completionJob.Start(jobCtx)

	slog.Info("consumers service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down consumers service")

	expirationJob.Stop()
	completionJob.Stop()
	cancelJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(ctx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}

	slog.Info("consumers service stopped")
}

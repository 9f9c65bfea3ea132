package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
	"github.com/geocoder89/boardhub/internal/config"
	"github.com/geocoder89/boardhub/internal/observability"
	"github.com/geocoder89/boardhub/internal/queue/redisclient"
	"github.com/geocoder89/boardhub/internal/queue/worker"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	redisClient := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer redisClient.Close()

	if err := redisClient.Ping(ctx); err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Queue:       audit.QueueName,
		WaitTimeout: 5 * time.Second,
	}, redisClient, audit.NewLogRecorder(log), log)

	log.Info("worker has started")

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}

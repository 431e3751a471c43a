package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/engagekit/onsite/internal/container"
	"github.com/engagekit/onsite/internal/messaging"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	opts := &container.Options{
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		StoreBackend:     getEnv("STORE_BACKEND", "redis"),
		AppID:            getEnv("APP_ID", ""),
		NotificationsURL: getEnv("NOTIFICATIONS_URL", ""),
		AckURL:           getEnv("ACK_URL", ""),
		TrackingURL:      getEnv("TRACKING_URL", ""),
		FetchWindow:      getEnv("FETCH_WINDOW", "1h"),
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "*/10 * * * *"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StoresPackage(injector)
	container.PublisherGroupPackage(injector)
	container.AckClientPackage(injector)
	container.EnginePackage(injector)
	container.ConsumerGroupPackage(injector)
	container.CronPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)
	sweep := do.MustInvoke[*cron.Cron](injector)

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	sweep.Start()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	<-sweep.Stop().Done()

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

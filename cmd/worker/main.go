package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/itechteam/formdesk/internal/config"
	"github.com/itechteam/formdesk/internal/notifications"
	"github.com/itechteam/formdesk/internal/observability"
	"github.com/itechteam/formdesk/internal/queue/redisclient"
	"github.com/itechteam/formdesk/internal/queue/redisqueue"
	"github.com/itechteam/formdesk/internal/queue/worker"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env).With("component", "worker")
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.QueueDriver != config.QueueRedis {
		log.Error("standalone worker needs QUEUE_DRIVER=redis", "queue_driver", cfg.QueueDriver)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "worker", cfg.TracingEnabled, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	rdb, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.WorkerConcurrency + 4,
	})
	if err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	notifier, err := notifications.FromConfig(ctx, cfg, log)
	if err != nil {
		log.Error("notifier init failed", "notifier", cfg.Notifier, "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	q := redisqueue.New(rdb.Raw(), cfg.QueuePrefix, 0)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:      workerID,
		Concurrency:   cfg.WorkerConcurrency,
		PollInterval:  cfg.WorkerPollInterval,
		ShutdownGrace: cfg.WorkerShutdownGrace,
	}, q, notifier, log, prom, nil)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(q, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID, "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	_ = healthSrv.Shutdown(shutdownCtx)
	_ = shutdownTracer(shutdownCtx)

	log.Info("worker shutdown complete")
}

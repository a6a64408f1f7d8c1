package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/itechteam/formdesk/internal/auth"
	"github.com/itechteam/formdesk/internal/config"
	"github.com/itechteam/formdesk/internal/db"
	httpx "github.com/itechteam/formdesk/internal/http"
	"github.com/itechteam/formdesk/internal/intake"
	"github.com/itechteam/formdesk/internal/notifications"
	"github.com/itechteam/formdesk/internal/observability"
	"github.com/itechteam/formdesk/internal/queue"
	"github.com/itechteam/formdesk/internal/queue/redisclient"
	"github.com/itechteam/formdesk/internal/queue/redisqueue"
	"github.com/itechteam/formdesk/internal/queue/worker"
	"github.com/itechteam/formdesk/internal/repo/file"
	"github.com/itechteam/formdesk/internal/repo/memory"
	"github.com/itechteam/formdesk/internal/repo/postgres"
	"github.com/itechteam/formdesk/internal/store"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// a missing .env is fine, real deployments use the environment
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "api", cfg.TracingEnabled, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	backend, closeBackend, err := openBackend(ctx, cfg, prom, log)
	if err != nil {
		log.Error("record store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeBackend()

	notifier, err := notifications.FromConfig(ctx, cfg, log)
	if err != nil {
		log.Error("notifier init failed", "notifier", cfg.Notifier, "err", err)
		os.Exit(1)
	}

	var q queue.Queue
	if cfg.NotifyMode == config.NotifyAsync {
		var closeQueue func()
		q, closeQueue, err = openQueue(ctx, cfg)
		if err != nil {
			log.Error("queue init failed", "driver", cfg.QueueDriver, "err", err)
			os.Exit(1)
		}
		defer closeQueue()
	}

	svc := intake.NewService(intake.Deps{
		Records:  store.NewRegistry(backend, log),
		Composer: notifications.Composer{Inbox: cfg.NotifyTo, Location: time.Local},
		Notifier: notifier,
		Queue:    q,
		Prom:     prom,
		Log:      log,
	}, intake.Config{
		Mode:        cfg.NotifyMode,
		MaxAttempts: cfg.MaxAttempts,
		CacheTTL:    cfg.CacheTTL,
	})

	deps := httpx.Deps{
		Cfg:      cfg,
		Log:      log,
		Prom:     prom,
		Gatherer: reg,
		Service:  svc,

		NotifierState: notifier.State,
	}
	if cfg.AdminEnabled() {
		tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
		deps.Admin = auth.NewAdmin(cfg.AdminEmail, cfg.AdminPasswordHash, tokens)
		deps.Tokens = tokens
	}

	router := httpx.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// in-process delivery worker
	workerDone := make(chan struct{})
	if q != nil && cfg.WorkerInProcess {
		w := worker.New(worker.Config{
			WorkerID:      workerID("api"),
			Concurrency:   cfg.WorkerConcurrency,
			PollInterval:  cfg.WorkerPollInterval,
			ShutdownGrace: cfg.WorkerShutdownGrace,
		}, q, notifier, log, prom, nil)

		go func() {
			defer close(workerDone)
			if err := w.Run(ctx); err != nil {
				log.Error("worker stopped with error", "err", err)
			}
		}()
	} else {
		close(workerDone)
	}

	go func() {
		log.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"store", cfg.StoreDriver,
			"notify_mode", cfg.NotifyMode,
			"notifier", cfg.Notifier,
			"admin", cfg.AdminEnabled(),
		)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		<-workerDone

		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12*time.Second + cfg.WorkerShutdownGrace):
		log.Error("shutdown timed out")
	}
}

func openBackend(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (store.Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.NewRecordsRepo(), func() {}, nil

	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, 10)
		if err != nil {
			return nil, nil, err
		}

		repo := postgres.NewRecordsRepo(pool, prom)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	default:
		return file.NewRecordsRepo(cfg.DataDir, prom, log), func() {}, nil
	}
}

func openQueue(ctx context.Context, cfg config.Config) (queue.Queue, func(), error) {
	if cfg.QueueDriver != config.QueueRedis {
		return queue.NewMemoryQueue(), func() {}, nil
	}

	rdb, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.WorkerConcurrency + 8,
	})
	if err != nil {
		return nil, nil, err
	}

	return redisqueue.New(rdb.Raw(), cfg.QueuePrefix, 0), func() { _ = rdb.Close() }, nil
}

func workerID(role string) string {
	host, _ := os.Hostname()
	return role + "-" + host + "-" + strconv.Itoa(os.Getpid())
}

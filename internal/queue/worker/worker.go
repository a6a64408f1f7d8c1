package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itechteam/formdesk/internal/notifications"
	"github.com/itechteam/formdesk/internal/observability"
	"github.com/itechteam/formdesk/internal/queue"
)

type Config struct {
	WorkerID      string
	Concurrency   int
	PollInterval  time.Duration
	ShutdownGrace time.Duration
}

// Worker drains the notification outbox.
type Worker struct {
	cfg      Config
	queue    queue.Queue
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
	metrics  *observability.DeliveryMetrics

	backoff func(attempt int) time.Duration
	now     func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, q queue.Queue, n notifications.Notifier, log *slog.Logger, prom *observability.Prom, metrics *observability.DeliveryMetrics) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if metrics == nil {
		metrics = observability.NewDeliveryMetrics()
	}

	return &Worker{
		cfg:      cfg,
		queue:    q,
		notifier: n,
		log:      log.With("component", "worker", "worker_id", cfg.WorkerID),
		prom:     prom,
		metrics:  metrics,
		backoff:  ExponentialBackoff,
		now:      time.Now,
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

// Run blocks until ctx is cancelled, then waits up to ShutdownGrace for
// in-flight sends to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	w.log.Info("worker started", "concurrency", w.cfg.Concurrency)

	// sends keep running past cancellation so the drain can finish them
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, workCtx)
		}()
	}

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.log.Info("worker drained")
	case <-time.After(w.cfg.ShutdownGrace):
		cancelWork()
		<-done
		w.log.Warn("worker shutdown grace elapsed, in-flight sends cancelled")
	}
	return nil
}

func (w *Worker) loop(stop, workCtx context.Context) {
	for {
		if stop.Err() != nil {
			return
		}

		processed, err := w.ProcessOne(workCtx)
		if err != nil {
			w.log.Error("process job failed", "err", err)
		}

		if processed {
			continue
		}

		select {
		case <-stop.Done():
			return
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

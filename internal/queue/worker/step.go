package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itechteam/formdesk/internal/jobs"
	"github.com/itechteam/formdesk/internal/notifications"
	"github.com/itechteam/formdesk/internal/queue"
)

var errUndeliverable = errors.New("undeliverable job")

// ProcessOne claims and handles at most one job. It reports whether a job
// was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.queue.Claim(claimCtx)
	cancel()

	if err != nil {
		if errors.Is(err, queue.ErrEmpty) {
			return false, nil
		}

		return false, err
	}

	w.metrics.IncClaimed()

	kind, err := w.execute(ctx, j)

	if err != nil {
		return true, w.handleFailure(ctx, j, kind, err)
	}

	err = w.queue.Ack(ctx, j.ID)

	if err != nil {
		return true, fmt.Errorf("ack %s: %w", j.ID, err)
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) (string, error) {
	decoded, err := jobs.DecodePayload(j)
	if err != nil {
		return "unknown", fmt.Errorf("%w: %v", errUndeliverable, err)
	}

	p, ok := decoded.(jobs.SendNotificationPayload)
	if !ok {
		return "unknown", fmt.Errorf("%w: unexpected payload %T", errUndeliverable, decoded)
	}
	if err := jobs.ValidatePayload(j.Type, p); err != nil {
		return p.Kind, fmt.Errorf("%w: %v", errUndeliverable, err)
	}

	log := w.log.With("job_id", j.ID, "kind", p.Kind, "attempt", j.Attempts, "request_id", p.RequestID)

	if w.prom != nil {
		w.prom.DeliveriesInFlight.Inc()
		defer w.prom.DeliveriesInFlight.Dec()
	}

	start := w.now()
	err = w.notifier.Send(ctx, notifications.Message{
		Kind:    p.Kind,
		To:      p.To,
		Subject: p.Subject,
		Body:    p.Body,
	})
	elapsed := time.Since(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		return p.Kind, err
	}

	w.metrics.IncSent()
	if w.prom != nil {
		w.prom.ObserveDelivery(p.Kind, "sent", elapsed)
	}
	log.InfoContext(ctx, "notification sent", "duration_ms", elapsed.Milliseconds())
	return p.Kind, nil
}

func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, kind string, cause error) error {
	w.metrics.IncFailed()
	log := w.log.With("job_id", j.ID, "kind", kind, "attempt", j.Attempts, "max_attempts", j.MaxAttempts)

	if j.Exhausted() || errors.Is(cause, errUndeliverable) {
		w.metrics.IncDeadLettered()
		if w.prom != nil {
			w.prom.ObserveDelivery(kind, "dead", 0)
		}
		log.ErrorContext(ctx, "notification dead-lettered", "err", cause)
		if err := w.queue.DeadLetter(ctx, j, cause.Error()); err != nil {
			return fmt.Errorf("dead-letter %s: %w", j.ID, err)
		}
		return nil
	}

	delay := w.backoff(j.Attempts - 1)
	w.metrics.IncRetried()
	if w.prom != nil {
		w.prom.ObserveDelivery(kind, "retry", 0)
	}
	log.WarnContext(ctx, "notification failed, retrying", "err", cause, "retry_in", delay.String())

	if err := w.queue.Retry(ctx, j, w.now().Add(delay), cause.Error()); err != nil {
		return fmt.Errorf("retry %s: %w", j.ID, err)
	}
	return nil
}

package redisqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/itechteam/formdesk/internal/jobs"
	"github.com/itechteam/formdesk/internal/queue"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, "test:notifications", time.Minute), mr
}

func newJob(t *testing.T) jobs.Job {
	t.Helper()
	j, err := jobs.NewSendNotificationJob(jobs.SendNotificationPayload{
		Kind: "hire_request", To: "ada@example.com", Subject: "New Hire Request: Ada", Body: "hi",
	}, 3)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return j
}

func TestQueue_EnqueueClaimAck(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	j := newJob(t)
	if err := q.Enqueue(ctx, j); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got.ID != j.ID || got.Attempts != 1 || got.Status != jobs.JobProcessing {
		t.Fatalf("unexpected claim: %+v", got)
	}

	p, err := jobs.DecodePayload(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.(jobs.SendNotificationPayload).To != "ada@example.com" {
		t.Fatalf("payload did not survive the round trip: %+v", p)
	}

	if _, err := q.Claim(ctx); !errors.Is(err, queue.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}

	if err := q.Ack(ctx, got.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := q.Ack(ctx, got.ID); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	stats, _ := q.Stats(ctx)
	if stats != (queue.Stats{}) {
		t.Fatalf("queue should be empty, got %+v", stats)
	}
}

func TestQueue_FutureJobsAreNotDue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	j := newJob(t)
	j.RunAt = time.Now().Add(time.Hour)
	_ = q.Enqueue(ctx, j)

	if _, err := q.Claim(ctx); !errors.Is(err, queue.ErrEmpty) {
		t.Fatalf("expected ErrEmpty for future job, got %v", err)
	}

	q.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := q.Claim(ctx); err != nil {
		t.Fatalf("job should be due later: %v", err)
	}
}

func TestQueue_StaleClaimIsReclaimed(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_ = q.Enqueue(ctx, newJob(t))

	first, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	// the claiming worker vanished; visibility window has passed
	q.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	second, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if second.ID != first.ID || second.Attempts != 2 {
		t.Fatalf("expected reclaimed job with 2 attempts, got %+v", second)
	}
}

func TestQueue_RetryDeadLetterRequeue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_ = q.Enqueue(ctx, newJob(t))
	j, _ := q.Claim(ctx)

	if err := q.Retry(ctx, j, time.Now().Add(-time.Second), "connection refused"); err != nil {
		t.Fatalf("retry: %v", err)
	}

	j, err := q.Claim(ctx)
	if err != nil {
		t.Fatalf("claim after retry: %v", err)
	}
	if j.LastError == nil || *j.LastError != "connection refused" {
		t.Fatalf("last error not kept: %+v", j)
	}

	if err := q.DeadLetter(ctx, j, "connection refused"); err != nil {
		t.Fatalf("dead-letter: %v", err)
	}

	dead, err := q.Dead(ctx)
	if err != nil || len(dead) != 1 || dead[0].ID != j.ID {
		t.Fatalf("expected one dead job, got %+v (%v)", dead, err)
	}

	stats, _ := q.Stats(ctx)
	if stats != (queue.Stats{Dead: 1}) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	requeued, err := q.Requeue(ctx, j.ID)
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if requeued.Attempts != 0 {
		t.Fatalf("requeue should reset attempts, got %d", requeued.Attempts)
	}

	if _, err := q.Requeue(ctx, "missing"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	again, err := q.Claim(ctx)
	if err != nil || again.ID != j.ID || again.Attempts != 1 {
		t.Fatalf("requeued job should be claimable fresh: %+v (%v)", again, err)
	}
}

func TestQueue_Ping(t *testing.T) {
	q, mr := newTestQueue(t)

	if err := q.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr.Close()
	if err := q.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error after server closed")
	}
}

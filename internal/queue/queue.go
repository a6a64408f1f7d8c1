package queue

import (
	"context"
	"errors"
	"time"

	"github.com/itechteam/formdesk/internal/jobs"
)

var (
	ErrEmpty    = errors.New("no job due")
	ErrNotFound = errors.New("job not found")
)

// Queue is the notification outbox. Claim hands a due job to exactly one
// caller and counts the attempt; the caller must then Ack, Retry or
// DeadLetter it.
type Queue interface {
	Enqueue(ctx context.Context, j jobs.Job) error
	Claim(ctx context.Context) (jobs.Job, error)
	Ack(ctx context.Context, id string) error
	Retry(ctx context.Context, j jobs.Job, runAt time.Time, lastErr string) error
	DeadLetter(ctx context.Context, j jobs.Job, lastErr string) error
	Dead(ctx context.Context) ([]jobs.Job, error)
	Requeue(ctx context.Context, id string) (jobs.Job, error)
	Stats(ctx context.Context) (Stats, error)
}

type Stats struct {
	Ready      int64 `json:"ready"`
	Processing int64 `json:"processing"`
	Dead       int64 `json:"dead"`
}

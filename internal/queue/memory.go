package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/itechteam/formdesk/internal/jobs"
)

// MemoryQueue lives and dies with the process. Jobs still pending at
// shutdown are lost.
type MemoryQueue struct {
	mu         sync.Mutex
	ready      []jobs.Job
	processing map[string]jobs.Job
	dead       map[string]jobs.Job

	now func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		processing: make(map[string]jobs.Job),
		dead:       make(map[string]jobs.Job),
		now:        time.Now,
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, j jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j.Status = jobs.JobPending
	q.ready = append(q.ready, j)
	return nil
}

func (q *MemoryQueue) Claim(_ context.Context) (jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	best := -1
	for i, j := range q.ready {
		if j.RunAt.After(now) {
			continue
		}
		if best == -1 || j.RunAt.Before(q.ready[best].RunAt) {
			best = i
		}
	}
	if best == -1 {
		return jobs.Job{}, ErrEmpty
	}

	j := q.ready[best]
	q.ready = append(q.ready[:best], q.ready[best+1:]...)

	j.Attempts++
	j.Status = jobs.JobProcessing
	j.UpdatedAt = now.UTC()
	q.processing[j.ID] = j

	return j, nil
}

func (q *MemoryQueue) Ack(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.processing[id]; !ok {
		return ErrNotFound
	}
	delete(q.processing, id)
	return nil
}

func (q *MemoryQueue) Retry(_ context.Context, j jobs.Job, runAt time.Time, lastErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.processing[j.ID]; !ok {
		return ErrNotFound
	}
	delete(q.processing, j.ID)

	j.Status = jobs.JobPending
	j.RunAt = runAt.UTC()
	j.LastError = &lastErr
	j.UpdatedAt = q.now().UTC()
	q.ready = append(q.ready, j)
	return nil
}

func (q *MemoryQueue) DeadLetter(_ context.Context, j jobs.Job, lastErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.processing[j.ID]; !ok {
		return ErrNotFound
	}
	delete(q.processing, j.ID)

	j.Status = jobs.JobDead
	j.LastError = &lastErr
	j.UpdatedAt = q.now().UTC()
	q.dead[j.ID] = j
	return nil
}

func (q *MemoryQueue) Dead(_ context.Context) ([]jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]jobs.Job, 0, len(q.dead))
	for _, j := range q.dead {
		out = append(out, j)
	}
	SortByUpdated(out)
	return out, nil
}

func (q *MemoryQueue) Requeue(_ context.Context, id string) (jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.dead[id]
	if !ok {
		return jobs.Job{}, ErrNotFound
	}
	delete(q.dead, id)

	j = Reset(j, q.now())
	q.ready = append(q.ready, j)
	return j, nil
}

func (q *MemoryQueue) Stats(_ context.Context) (Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		Ready:      int64(len(q.ready)),
		Processing: int64(len(q.processing)),
		Dead:       int64(len(q.dead)),
	}, nil
}

// Reset gives a dead-lettered job a fresh set of attempts.
func Reset(j jobs.Job, now time.Time) jobs.Job {
	j.Status = jobs.JobPending
	j.Attempts = 0
	j.RunAt = now.UTC()
	j.UpdatedAt = now.UTC()
	return j
}

// SortByUpdated orders jobs oldest update first.
func SortByUpdated(js []jobs.Job) {
	sort.Slice(js, func(a, b int) bool {
		if !js[a].UpdatedAt.Equal(js[b].UpdatedAt) {
			return js[a].UpdatedAt.Before(js[b].UpdatedAt)
		}
		return js[a].ID < js[b].ID
	})
}

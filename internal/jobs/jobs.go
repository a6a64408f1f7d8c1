package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxAttempts = 8

// a Job is one unit of deferred work sitting in the outbox queue.
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      JobStatus       `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	RunAt       time.Time       `json:"runAt"`
	LastError   *string         `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// creation of a new pending job with defaults.
func NewJob(t JobType, payloadJSON []byte, runAt time.Time, maxAttempts int) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	now := time.Now().UTC()

	if runAt.IsZero() {
		runAt = now
	}

	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	j := Job{
		ID:          uuid.NewString(),
		Type:        t,
		Payload:     payloadJSON,
		Status:      JobPending,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		RunAt:       runAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return j, nil
}

// Exhausted reports whether the job has used up its attempts.
func (j Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}

package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/itechteam/formdesk/internal/domain/submission"
)

type RecordsRepo struct {
	mu    sync.RWMutex
	items map[submission.Kind][]json.RawMessage
}

func NewRecordsRepo() *RecordsRepo {
	return &RecordsRepo{
		items: make(map[submission.Kind][]json.RawMessage),
	}
}

func (r *RecordsRepo) LoadAll(_ context.Context, kind submission.Kind) ([]json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneRecords(r.items[kind]), nil
}

func (r *RecordsRepo) SaveAll(_ context.Context, kind submission.Kind, records []json.RawMessage) error {
	r.mu.Lock()
	r.items[kind] = cloneRecords(records)
	r.mu.Unlock()

	return nil
}

// Len is used by tests to assert nothing was written.
func (r *RecordsRepo) Len(kind submission.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items[kind])
}

// callers must not be able to mutate stored bytes
func cloneRecords(in []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(in))
	for i, rec := range in {
		out[i] = append(json.RawMessage(nil), rec...)
	}
	return out
}

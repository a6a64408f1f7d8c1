package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/itechteam/formdesk/internal/domain/submission"
)

// Collection is a typed view over one kind's sequence. Appends through the
// same Collection never interleave.
type Collection[T any] struct {
	kind    submission.Kind
	backend Backend
	log     *slog.Logger

	mu sync.Mutex
}

func NewCollection[T any](kind submission.Kind, backend Backend, log *slog.Logger) *Collection[T] {
	return &Collection[T]{
		kind:    kind,
		backend: backend,
		log:     log.With("component", "store", "kind", string(kind)),
	}
}

func (c *Collection[T]) Kind() submission.Kind { return c.kind }

// Raw returns the stored sequence without decoding it.
func (c *Collection[T]) Raw(ctx context.Context) ([]json.RawMessage, error) {
	return c.backend.LoadAll(ctx, c.kind)
}

// All decodes every stored record. Entries that do not decode into T are
// skipped here but stay in the backend untouched.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	raw, err := c.backend.LoadAll(ctx, c.kind)
	if err != nil {
		return nil, err
	}
	return c.decode(ctx, raw), nil
}

// Append loads the sequence, lets build derive the new record from it and
// writes the sequence back with the record at the end.
func (c *Collection[T]) Append(ctx context.Context, build func(existing []T) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var created T

	buildRaw := func(existing []json.RawMessage) (json.RawMessage, error) {
		rec, err := build(c.decode(ctx, existing))
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c.kind, err)
		}
		created = rec
		return raw, nil
	}

	if ap, ok := c.backend.(Appender); ok {
		if err := ap.AppendWith(ctx, c.kind, buildRaw); err != nil {
			var zero T
			return zero, err
		}
		return created, nil
	}

	existing, err := c.backend.LoadAll(ctx, c.kind)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err := buildRaw(existing)
	if err != nil {
		var zero T
		return zero, err
	}

	next := make([]json.RawMessage, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, raw)

	if err := c.backend.SaveAll(ctx, c.kind, next); err != nil {
		var zero T
		return zero, err
	}

	c.log.DebugContext(ctx, "record appended", "count", len(next))
	return created, nil
}

func (c *Collection[T]) decode(ctx context.Context, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			c.log.WarnContext(ctx, "skipping undecodable record", "index", i, "err", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

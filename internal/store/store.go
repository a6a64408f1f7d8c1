package store

import (
	"context"
	"encoding/json"

	"github.com/itechteam/formdesk/internal/domain/submission"
)

var ErrUnknownKind = submission.ErrUnknownKind

// Backend persists one ordered sequence of JSON records per kind.
// SaveAll replaces the whole sequence.
type Backend interface {
	LoadAll(ctx context.Context, kind submission.Kind) ([]json.RawMessage, error)
	SaveAll(ctx context.Context, kind submission.Kind, records []json.RawMessage) error
}

// Appender is implemented by backends that can append atomically across
// processes. build sees the current sequence and returns the record to add.
type Appender interface {
	AppendWith(ctx context.Context, kind submission.Kind, build func(existing []json.RawMessage) (json.RawMessage, error)) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

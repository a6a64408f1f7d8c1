package notifications

import (
	"context"
	"errors"
	"fmt"
)

// ErrDelivery matches every failure to hand a message to the provider.
var ErrDelivery = errors.New("notification delivery failed")

var ErrCircuitOpen = fmt.Errorf("circuit breaker open: %w", ErrDelivery)

type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SendError carries the provider name so callers can report which transport
// failed without parsing strings.
type SendError struct {
	Provider string
	Err      error
}

func (e *SendError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

func (e *SendError) Is(target error) bool { return target == ErrDelivery }

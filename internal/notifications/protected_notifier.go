package notifications

import (
	"context"
	"sync"
	"time"
)

// CircuitState is reported on /readyz so operators can see when mail is
// being short-circuited.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // per send
	FailureThreshold int           // consecutive failures before opening
	Cooldown         time.Duration // time spent open before a trial send
	HalfOpenMaxCalls int           // concurrent trial sends
}

func (c ProtectedNotifierConfig) withDefaults() ProtectedNotifierConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// ProtectedNotifier bounds every send with a timeout and stops calling a
// provider that keeps failing until the cooldown has passed.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	now   func() time.Time

	mu        sync.Mutex
	state     CircuitState
	failures  int
	openUntil time.Time
	trials    int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: CircuitClosed,
	}
}

func (n *ProtectedNotifier) Send(ctx context.Context, msg Message) error {
	if !n.admit() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.Send(sendCtx, msg)
	n.record(err)
	return err
}

func (n *ProtectedNotifier) State() CircuitState {
	n.mu.Lock()
	defer n.mu.Unlock()

	// an expired open window reads as half-open even before the next send
	if n.state == CircuitOpen && !n.now().Before(n.openUntil) {
		return CircuitHalfOpen
	}
	return n.state
}

// admit decides whether a send may reach the provider.
func (n *ProtectedNotifier) admit() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == CircuitOpen {
		if n.now().Before(n.openUntil) {
			return false
		}
		n.state = CircuitHalfOpen
		n.trials = 0
	}

	if n.state == CircuitHalfOpen {
		if n.trials >= n.cfg.HalfOpenMaxCalls {
			return false
		}
		n.trials++
	}
	return true
}

func (n *ProtectedNotifier) record(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	wasTrial := n.state == CircuitHalfOpen
	if wasTrial && n.trials > 0 {
		n.trials--
	}

	if err == nil {
		n.failures = 0
		n.state = CircuitClosed
		return
	}

	n.failures++
	if wasTrial || n.failures >= n.cfg.FailureThreshold {
		n.state = CircuitOpen
		n.openUntil = n.now().Add(n.cfg.Cooldown)
	}
}

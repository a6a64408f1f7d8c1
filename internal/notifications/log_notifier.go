package notifications

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier writes the message to the log instead of mailing it.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("component", "log_notifier")}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return &SendError{Provider: "log", Err: ctx.Err()}
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return &SendError{Provider: "log", Err: errors.New("provider down (simulated)")}
	}

	n.log.InfoContext(ctx, "notification",
		"kind", msg.Kind,
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	n.log.DebugContext(ctx, "notification body", "body", msg.Body)
	return nil
}

package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/itechteam/formdesk/internal/config"
)

// FromConfig builds the configured transport wrapped in a ProtectedNotifier.
func FromConfig(ctx context.Context, cfg config.Config, log *slog.Logger) (*ProtectedNotifier, error) {
	var inner Notifier

	switch cfg.Notifier {
	case config.NotifierLog, "":
		inner = NewLogNotifier(log)
	case config.NotifierSMTP:
		inner = NewSMTPNotifier(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	case config.NotifierSES:
		ses, err := NewSESNotifier(ctx, cfg.AWSRegion, cfg.MailFrom)
		if err != nil {
			return nil, err
		}
		inner = ses
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}

	return NewProtectedNotifier(inner, ProtectedNotifierConfig{
		Timeout:          cfg.NotifyTimeout,
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
	}), nil
}

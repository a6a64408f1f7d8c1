package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobSendNotification:
		var p SendNotificationPayload
		switch v := payload.(type) {
		case SendNotificationPayload:
			p = v
		case *SendNotificationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.Kind) == "" || trim(p.To) == "" || trim(p.Subject) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}

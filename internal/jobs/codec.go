package jobs

import (
	"encoding/json"
	"fmt"
	"time"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobSendNotification:
		_, ok := payload.(SendNotificationPayload)

		if !ok {
			_, ok2 := payload.(*SendNotificationPayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case JobSendNotification:
		var p SendNotificationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// NewSendNotificationJob validates and encodes p into a pending job.
func NewSendNotificationJob(p SendNotificationPayload, maxAttempts int) (Job, error) {
	if err := ValidatePayload(JobSendNotification, p); err != nil {
		return Job{}, err
	}

	b, err := EncodePayload(JobSendNotification, p)
	if err != nil {
		return Job{}, err
	}

	return NewJob(JobSendNotification, b, time.Time{}, maxAttempts)
}

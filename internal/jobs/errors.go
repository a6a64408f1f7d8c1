package jobs

import "errors"

var (
	ErrInvalidJobType    = errors.New("invalid job type")
	ErrInvalidJobPayload = errors.New("invalid job payload")

	// a payload was decoded against a job of another type
	ErrPayloadTypeMismatch = errors.New("payload type mismatch for job type")
)

package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// RecordCursor points just past the last record of a page. Records have no
// id of their own, so the position in the stored sequence is the key.
type RecordCursor struct {
	Kind     string `json:"kind"`
	Position int    `json:"pos"`
}

func EncodeRecordCursor(kind string, position int) (string, error) {
	b, err := json.Marshal(RecordCursor{Kind: kind, Position: position})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeRecordCursor rejects cursors that were issued for another kind.
func DecodeRecordCursor(cursor, kind string) (RecordCursor, error) {
	var c RecordCursor
	if err := decode(cursor, &c); err != nil {
		return RecordCursor{}, err
	}
	if c.Kind != kind || c.Position < 0 {
		return RecordCursor{}, ErrInvalidCursor
	}
	return c, nil
}

type JobCursor struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
}

func EncodeJobCursor(updatedAt time.Time, id string) (string, error) {
	b, err := json.Marshal(JobCursor{UpdatedAt: updatedAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeJobCursor(cursor string) (JobCursor, error) {
	var c JobCursor
	if err := decode(cursor, &c); err != nil {
		return JobCursor{}, err
	}
	if c.ID == "" || c.UpdatedAt.IsZero() {
		return JobCursor{}, ErrInvalidCursor
	}
	return c, nil
}

// After reports whether (updatedAt, id) sorts after the cursor.
func (c JobCursor) After(updatedAt time.Time, id string) bool {
	if !updatedAt.Equal(c.UpdatedAt) {
		return updatedAt.After(c.UpdatedAt)
	}
	return id > c.ID
}

func decode(cursor string, out any) error {
	if cursor == "" {
		return ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return errors.Join(ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Join(ErrInvalidCursor, err)
	}
	return nil
}

package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text is a string field that also accepts a bare JSON number, since form
// libraries often post phone numbers and budgets unquoted. A numeric zero
// decodes to "" so required checks treat it as missing; the quoted "0" is kept.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	if f, err := n.Float64(); err == nil && f == 0 {
		*t = ""
		return nil
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Rating is a whole-number score. Clients send it either as a number or as a
// numeric string.
type Rating int

func (r *Rating) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		*r = 0
		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		// JSON numbers like 4.0 still count as whole ratings
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("rating must be an integer, got %s", string(b))
		}
		n = int(f)
	}

	*r = Rating(n)
	return nil
}

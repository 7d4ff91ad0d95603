// internal/api/handler/request.go
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"money-tracker/internal/util"
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 15 * time.Second

// amountField accepts an amount sent either as a JSON string or a JSON number
// and keeps its literal text, so precision is decided by the domain parser.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: amount must be a number or a decimal string", util.ErrInvalidInput)
	}
	*a = amountField(n.String())
	return nil
}

// timestampLayouts are tried in order when parsing occurred_at.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp reads an occurred_at value. Values without a zone are taken as UTC.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: occurred_at is required", util.ErrInvalidInput)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: occurred_at %q is not a valid timestamp", util.ErrInvalidInput, raw)
}

// decodeJSON decodes a request body; malformed JSON is invalid input.
func decodeJSON(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		if util.IsError(err, util.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: malformed request body", util.ErrInvalidInput)
	}
	return nil
}

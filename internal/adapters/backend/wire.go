package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// flexString accepts a JSON string or number. Backend ids arrive as either.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*s = flexString(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*s = flexString(number.String())
	return nil
}

// flexFloat accepts a JSON number or a numeric string such as "12.50".
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexFloat{}
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
		if raw == "" {
			*f = flexFloat{}
			return nil
		}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*f = flexFloat{Value: value, Set: true}
	return nil
}

func firstString(values ...flexString) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(string(value)); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstFloat(values ...flexFloat) float64 {
	for _, value := range values {
		if value.Set {
			return value.Value
		}
	}
	return 0
}

func firstInt(fallback int, values ...flexFloat) int {
	for _, value := range values {
		if value.Set {
			return int(value.Value)
		}
	}
	return fallback
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// list decodes either a bare JSON array or an object with a "data" array.
// null decodes as an empty list.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var env struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		*l = env.Data
	default:
		return fmt.Errorf("unexpected list payload starting with %q", data[0])
	}
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms. Any other
// non-zero number counts as true.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch s {
	case "true":
		*b = true
	case "false", "", "null":
		*b = false
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid boolean %s", data)
		}
		*b = n != 0
	}
	return nil
}

// flexFloat accepts a JSON number or a numeric string such as "19.40".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	*f = flexFloat(n)
	return nil
}

// Timestamp layouts accepted from the server. Zoned layouts go first.
var (
	zonedLayouts    = []string{time.RFC3339Nano, "2006-01-02 15:04:05Z07:00"}
	zonelessLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"}
)

// parseTimestamp parses an ISO-8601 server timestamp. Date-times without an
// offset are local to loc; bare dates are UTC midnight.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// formatTimestamp renders t the way the server expects: UTC with
// millisecond precision.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

type apiFeeding struct {
	ID        int64    `json:"id"`
	FeedCheck flexBool `json:"feed_check"`
	FedAt     string   `json:"fed_at"`
	PetID     int64    `json:"pet_id"`
	UserID    int64    `json:"user_id"`
}

type apiWalk struct {
	ID        int64    `json:"id"`
	WalkCheck flexBool `json:"walk_check"`
	WalkedAt  string   `json:"walked_at"`
	PetID     int64    `json:"pet_id"`
	UserID    int64    `json:"user_id"`
}

type apiBath struct {
	ID       int64  `json:"id"`
	BathedAt string `json:"bathed_at"`
	PetID    int64  `json:"pet_id"`
	UserID   int64  `json:"user_id"`
}

type apiWeight struct {
	ID        int64     `json:"id"`
	Value     flexFloat `json:"value"`
	WeighedAt string    `json:"weighed_at"`
	PetID     int64     `json:"pet_id"`
	UserID    int64     `json:"user_id"`
}

type feedingBody struct {
	PetID     int64  `json:"pet_id,omitempty"`
	FeedCheck bool   `json:"feed_check"`
	FedAt     string `json:"fed_at"`
}

type walkBody struct {
	PetID     int64  `json:"pet_id,omitempty"`
	WalkCheck bool   `json:"walk_check"`
	WalkedAt  string `json:"walked_at"`
}

type bathBody struct {
	PetID    int64  `json:"pet_id"`
	BathedAt string `json:"bathed_at"`
}

type weightBody struct {
	PetID     int64   `json:"pet_id"`
	Value     float64 `json:"value"`
	WeighedAt string  `json:"weighed_at"`
}

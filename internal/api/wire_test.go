package api

import (
	"encoding/json"
	"testing"
	"time"
)

func TestList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "bare array", input: `[{"id":1},{"id":2}]`, want: 2},
		{name: "envelope", input: `{"data":[{"id":1}]}`, want: 1},
		{name: "envelope without data", input: `{"meta":{}}`, want: 0},
		{name: "null", input: `null`, want: 0},
		{name: "empty array", input: `[]`, want: 0},
		{name: "scalar", input: `"oops"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got list[apiBath]
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "utc millis", input: "2024-01-15T09:30:00.000Z", want: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{name: "microseconds", input: "2024-01-15T09:30:00.123456Z", want: time.Date(2024, 1, 15, 9, 30, 0, 123456000, time.UTC)},
		{name: "offset", input: "2024-01-15T10:30:00+01:00", want: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{name: "zoneless is local", input: "2024-01-15T10:30:00", want: time.Date(2024, 1, 15, 10, 30, 0, 0, loc)},
		{name: "sql style is local", input: "2024-01-15 10:30:00", want: time.Date(2024, 1, 15, 10, 30, 0, 0, loc)},
		{name: "date only is utc", input: "2024-01-15", want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.input, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlexBool(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`true`, true}, {`false`, false}, {`1`, true}, {`0`, false},
		{`"1"`, true}, {`"0"`, false}, {`null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var b flexBool
			if err := json.Unmarshal([]byte(tt.input), &b); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if bool(b) != tt.want {
				t.Errorf("got %v, want %v", b, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 5, 987654321, time.FixedZone("CET", 3600))
	if got := formatTimestamp(at); got != "2024-01-15T09:30:05.987Z" {
		t.Errorf("formatTimestamp() = %q", got)
	}
}

package validation

import (
	"testing"
	"time"
)

func TestValidateRequestTitle(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{name: "valid title", title: "Need a babysitter Friday evening", wantErr: false},
		{name: "empty title", title: "", wantErr: true},
		{name: "whitespace only", title: "   ", wantErr: true},
		{name: "too long", title: string(long), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestTitle(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequestTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStartTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		startAt time.Time
		wantErr bool
	}{
		{name: "future start", startAt: now.Add(2 * time.Hour), wantErr: false},
		{name: "past start", startAt: now.Add(-1 * time.Minute), wantErr: true},
		{name: "exactly now", startAt: now, wantErr: true},
		{name: "zero value", startAt: time.Time{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStartTime(tt.startAt, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStartTime() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTimeRange(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	after := start.Add(1 * time.Hour)
	before := start.Add(-1 * time.Hour)

	tests := []struct {
		name    string
		endAt   *time.Time
		wantErr bool
	}{
		{name: "no end time", endAt: nil, wantErr: false},
		{name: "end after start", endAt: &after, wantErr: false},
		{name: "end before start", endAt: &before, wantErr: true},
		{name: "end equals start", endAt: &start, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimeRange(start, tt.endAt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimeRange() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

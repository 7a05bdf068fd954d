package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: "", wantErr: false},
		{name: "Local returns local", timezone: "Local", wantErr: false},
		{name: "valid timezone UTC", timezone: "UTC", wantErr: false},
		{name: "valid timezone Asia/Tokyo", timezone: "Asia/Tokyo", wantErr: false},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		n    int
		want string
	}{
		{"2026-01-01", 1, "2026-01-02"},
		{"2026-01-01", -1, "2025-12-31"},
		{"2028-02-28", 1, "2028-02-29"},
		{"2026-03-28", 2, "2026-03-30"},
	}

	for _, tt := range tests {
		got, err := AddDays(tt.date, tt.n)
		if err != nil {
			t.Fatalf("AddDays(%s, %d) error: %v", tt.date, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("AddDays(%s, %d) = %s, want %s", tt.date, tt.n, got, tt.want)
		}
	}

	if _, err := AddDays("not-a-date", 1); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestGetTodayInTimezone(t *testing.T) {
	before := time.Now().UTC().Format("2006-01-02")
	got, err := GetTodayInTimezone("UTC")
	if err != nil {
		t.Fatalf("GetTodayInTimezone failed: %v", err)
	}
	after := time.Now().UTC().Format("2006-01-02")
	if got != before && got != after {
		t.Errorf("GetTodayInTimezone(UTC) = %s, want %s", got, after)
	}

	if _, err := GetTodayInTimezone("Nowhere/City"); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestValidators(t *testing.T) {
	if !ValidateDateFormat("2026-10-19") {
		t.Error("expected valid date")
	}
	if ValidateDateFormat("2026-13-01") {
		t.Error("expected invalid month to fail")
	}
	if !ValidateTimeFormat("08:30") {
		t.Error("expected valid time")
	}
	if ValidateTimeFormat("25:00") {
		t.Error("expected invalid hour to fail")
	}
	if !ValidateTimezone("Local") || ValidateTimezone("Nowhere/City") {
		t.Error("timezone validation mismatch")
	}
}

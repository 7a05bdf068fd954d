package models

import (
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

func TestChallenge_StatusOn(t *testing.T) {
	c := Challenge{StartDay: "2026-03-01", EndDay: "2026-03-31"}

	tests := []struct {
		today string
		want  constants.ChallengeStatus
	}{
		{"2026-02-28", constants.ChallengeUpcoming},
		{"2026-03-01", constants.ChallengeActive},
		{"2026-03-15", constants.ChallengeActive},
		{"2026-03-31", constants.ChallengeActive},
		{"2026-04-01", constants.ChallengeEnded},
	}

	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			if got := c.StatusOn(tt.today); got != tt.want {
				t.Errorf("StatusOn(%s) = %s, want %s", tt.today, got, tt.want)
			}
		})
	}
}

func TestSettingsRoundTripAndDefaults(t *testing.T) {
	s := Settings{Timezone: "Europe/Berlin", WeekStart: "sunday"}
	ApplyDefaultSettings(&s)

	if s.ReminderTime != constants.DefaultReminderTime {
		t.Errorf("expected default reminder time, got %q", s.ReminderTime)
	}
	if s.CoachModel != constants.DefaultCoachModel {
		t.Errorf("expected default coach model, got %q", s.CoachModel)
	}

	got := MapToSettings(SettingsToMap(s))
	if got != s {
		t.Errorf("settings changed through map conversion: got %+v, want %+v", got, s)
	}
	if got.WeekStartDay() != time.Sunday {
		t.Errorf("expected sunday week start, got %v", got.WeekStartDay())
	}
}

func TestHabit_Active(t *testing.T) {
	now := time.Now()
	if !(Habit{}).Active() {
		t.Error("fresh habit should be active")
	}
	if (Habit{ArchivedAt: &now}).Active() {
		t.Error("archived habit should not be active")
	}
	if (Habit{DeletedAt: &now}).Active() {
		t.Error("deleted habit should not be active")
	}
}

package models

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) Settings {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingWeekStart:
			settings.WeekStart = value
		case constants.SettingReminderTime:
			settings.ReminderTime = value
		case constants.SettingCoachModel:
			settings.CoachModel = value
		case constants.SettingDefaultUser:
			settings.DefaultUser = value
		}
	}
	return settings
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:     settings.Timezone,
		constants.SettingWeekStart:    settings.WeekStart,
		constants.SettingReminderTime: settings.ReminderTime,
		constants.SettingCoachModel:   settings.CoachModel,
		constants.SettingDefaultUser:  settings.DefaultUser,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.WeekStart == "" {
		settings.WeekStart = constants.DefaultWeekStart
	}
	if settings.ReminderTime == "" {
		settings.ReminderTime = constants.DefaultReminderTime
	}
	if settings.CoachModel == "" {
		settings.CoachModel = constants.DefaultCoachModel
	}
}

// WeekStartDay returns the configured first day of the week.
func (s Settings) WeekStartDay() time.Weekday {
	if s.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

package constants

const (
	SettingTimezone     = "timezone"
	SettingWeekStart    = "week_start"
	SettingReminderTime = "reminder_time"
	SettingCoachModel   = "coach_model"
	SettingDefaultUser  = "default_user"

	// Default Settings Values
	DefaultTimezone     = "Local" // Use system local timezone by default
	DefaultWeekStart    = "monday"
	DefaultReminderTime = "20:00"
)

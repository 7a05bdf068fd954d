package models

// Settings represents application-wide settings
type Settings struct {
	Timezone     string `json:"timezone"`      // IANA timezone name, or "Local" for the system timezone
	WeekStart    string `json:"week_start"`    // "monday" or "sunday"
	ReminderTime string `json:"reminder_time"` // HH:MM, daily pending-habit reminder
	CoachModel   string `json:"coach_model"`
	DefaultUser  string `json:"default_user,omitempty"` // user ID used when --user is not given
}

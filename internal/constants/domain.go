package constants

// HabitStatus is the derived state of a habit on a given day
type HabitStatus string

// TaskPriority ranks daily tasks
type TaskPriority string

// MemberRole is a user's role within a group
type MemberRole string

// ChallengeStatus is derived from a challenge's date range
type ChallengeStatus string

// EventType identifies a realtime group change
type EventType string

const (
	StatusCompleted   HabitStatus = "completed"
	StatusPending     HabitStatus = "pending"
	StatusFailed      HabitStatus = "failed"
	StatusNotRequired HabitStatus = "not_required"

	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyMonthly  = "monthly"
	FrequencyWeekdays = "weekdays"
	FrequencyWeekends = "weekends"
	FrequencyXWeek    = "x_week" // suffix of "Nx_week"

	DefaultHabitCategory = "general"
	DefaultChallengeUnit = "times"
	MaxUserNameLength    = 40
	MaxHabitTitleLength  = 80
	MaxGroupNameLength   = 60
	MaxTaskTitleLength   = 120
	MaxDescriptionLength = 500

	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"

	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"

	ChallengeUpcoming ChallengeStatus = "upcoming"
	ChallengeActive   ChallengeStatus = "active"
	ChallengeEnded    ChallengeStatus = "ended"

	EventHabitLog          EventType = "habit_log"
	EventChallengeProgress EventType = "challenge_progress"
	EventChallengeEnded    EventType = "challenge_ended"
	EventMemberJoined      EventType = "member_joined"
	EventMemberLeft        EventType = "member_left"
	EventGroupUpdated      EventType = "group_updated"
)

package models

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	InviteCode  string    `json:"invite_code"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupMember struct {
	GroupID  string               `json:"group_id"`
	UserID   string               `json:"user_id"`
	UserName string               `json:"user_name,omitempty"`
	Role     constants.MemberRole `json:"role"`
	JoinedAt time.Time            `json:"joined_at"`
}

// IsAdmin reports whether the member can manage the group.
func (m GroupMember) IsAdmin() bool {
	return m.Role == constants.RoleAdmin
}

// MemberProgress is one member's shared habits as seen by the group on a day.
type MemberProgress struct {
	UserID    string              `json:"user_id"`
	UserName  string              `json:"user_name"`
	Habits    []SharedHabitStatus `json:"habits"`
	Completed int                 `json:"completed"`
	Total     int                 `json:"total"`
}

type SharedHabitStatus struct {
	HabitID string                `json:"habit_id"`
	Title   string                `json:"title"`
	Status  constants.HabitStatus `json:"status"`
	Streak  int                   `json:"streak"`
}

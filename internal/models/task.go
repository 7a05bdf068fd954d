package models

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// DailyTask is a one-off to-do scheduled for a single day.
type DailyTask struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Title       string                 `json:"title"`
	Priority    constants.TaskPriority `json:"priority"`
	Completed   bool                   `json:"completed"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Day         string                 `json:"day"` // YYYY-MM-DD
	OrderIndex  int                    `json:"order_index"`
	AISuggested bool                   `json:"ai_suggested"`
	CreatedAt   time.Time              `json:"created_at"`
}

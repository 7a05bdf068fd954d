package models

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

type Habit struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Frequency   string     `json:"frequency"` // daily, weekly, monthly, weekdays, weekends or Nx_week
	Description string     `json:"description,omitempty"`
	Streak      int        `json:"streak"` // cached current streak
	CreatedAt   time.Time  `json:"created_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Active reports whether the habit is neither archived nor deleted.
func (h Habit) Active() bool {
	return h.ArchivedAt == nil && h.DeletedAt == nil
}

// CreatedDay returns the creation date in loc as YYYY-MM-DD.
func (h Habit) CreatedDay(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return h.CreatedAt.In(loc).Format(constants.DateFormat)
}

// HabitLog marks a habit as completed on Day.
type HabitLog struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	Day       string    `json:"day"` // YYYY-MM-DD
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HabitDay pairs a calendar day with the habit's derived status.
type HabitDay struct {
	Day    string                `json:"day"`
	Status constants.HabitStatus `json:"status"`
}

type WeekProgress struct {
	Days      []HabitDay `json:"days"`
	Completed int        `json:"completed"`
	Target    int        `json:"target"`
	Percent   int        `json:"percent"`
}

// HabitOverview is a habit with everything needed to render it for one day.
type HabitOverview struct {
	Habit  Habit                 `json:"habit"`
	Status constants.HabitStatus `json:"status"`
	Streak int                   `json:"streak"`
	Week   WeekProgress          `json:"week"`
}

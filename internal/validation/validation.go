package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// ConflictType represents the type of data problem found
type ConflictType string

const (
	ConflictDuplicateHabitTitle ConflictType = "duplicate_habit_title"
	ConflictInvalidFrequency    ConflictType = "invalid_frequency"
	ConflictStaleStreak         ConflictType = "stale_streak"
	ConflictFutureLog           ConflictType = "future_log"
	ConflictInvalidDate         ConflictType = "invalid_date"
	ConflictInvalidPriority     ConflictType = "invalid_priority"
	ConflictDuplicateTaskOrder  ConflictType = "duplicate_task_order"
)

// Conflict is one problem detected in stored data
type Conflict struct {
	Type        ConflictType
	Description string
	IDs         []string
}

type ValidationResult struct {
	Conflicts []Conflict
}

func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

func (vr *ValidationResult) add(t ConflictType, ids []string, format string, args ...any) {
	vr.Conflicts = append(vr.Conflicts, Conflict{Type: t, Description: fmt.Sprintf(format, args...), IDs: ids})
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No problems detected."
	}
	var b strings.Builder
	b.WriteString("Problems detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

// HabitData is a habit together with its full log history.
type HabitData struct {
	Habit models.Habit
	Logs  []models.HabitLog
}

// Validator checks stored habits and tasks for inconsistencies that the
// write path should have prevented.
type Validator struct {
	today string
	loc   *time.Location
}

// New creates a Validator that treats today (YYYY-MM-DD) as the current day
// and reads creation timestamps in loc.
func New(today string, loc *time.Location) *Validator {
	return &Validator{today: today, loc: loc}
}

// ValidateHabits checks one user's habits. Deleted habits are skipped.
func (v *Validator) ValidateHabits(data []HabitData) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	titles := make(map[string][]string)
	for _, d := range data {
		h := d.Habit
		if h.DeletedAt != nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(h.Title))
		titles[key] = append(titles[key], h.ID)

		for _, l := range d.Logs {
			if !utils.ValidateDateFormat(l.Day) {
				result.add(ConflictInvalidDate, []string{h.ID}, "Habit %q has a log with invalid day %q", h.Title, l.Day)
			} else if l.Day > v.today {
				result.add(ConflictFutureLog, []string{h.ID}, "Habit %q is logged in the future on %s", h.Title, l.Day)
			}
		}

		if _, err := habits.ParseFrequency(h.Frequency); err != nil {
			result.add(ConflictInvalidFrequency, []string{h.ID}, "Habit %q has invalid frequency %q", h.Title, h.Frequency)
			continue
		}

		tracker, err := habits.FromHabit(h, d.Logs, v.loc)
		if err != nil {
			continue
		}
		streak, err := tracker.CurrentStreak(v.today)
		if err == nil && h.Active() && streak != h.Streak {
			result.add(ConflictStaleStreak, []string{h.ID}, "Habit %q caches streak %d but its logs give %d", h.Title, h.Streak, streak)
		}
	}

	keys := make([]string, 0, len(titles))
	for k := range titles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if ids := titles[k]; len(ids) > 1 {
			result.add(ConflictDuplicateHabitTitle, ids, "Duplicate habit title %q (IDs: %v)", k, ids)
		}
	}

	return result
}

// ValidateTasks checks the tasks of a single day.
func (v *Validator) ValidateTasks(tasks []models.DailyTask) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	orders := make(map[int][]string)
	for _, t := range tasks {
		switch t.Priority {
		case constants.PriorityLow, constants.PriorityMedium, constants.PriorityHigh:
		default:
			result.add(ConflictInvalidPriority, []string{t.ID}, "Task %q has invalid priority %q", t.Title, t.Priority)
		}
		if !utils.ValidateDateFormat(t.Day) {
			result.add(ConflictInvalidDate, []string{t.ID}, "Task %q has invalid day %q", t.Title, t.Day)
		}
		orders[t.OrderIndex] = append(orders[t.OrderIndex], t.ID)
	}

	idx := make([]int, 0, len(orders))
	for k := range orders {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	for _, k := range idx {
		if ids := orders[k]; len(ids) > 1 {
			result.add(ConflictDuplicateTaskOrder, ids, "Tasks %v share order index %d", ids, k)
		}
	}

	return result
}

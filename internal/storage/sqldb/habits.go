package sqldb

import (
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const habitColumns = "id, user_id, title, category, frequency, description, streak, created_at, archived_at, deleted_at"

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var createdAt string
	var archivedAt, deletedAt sql.NullString

	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Category, &h.Frequency, &h.Description, &h.Streak,
		&createdAt, &archivedAt, &deletedAt)
	if err != nil {
		return models.Habit{}, err
	}

	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if h.ArchivedAt, err = parseTimePtr(archivedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse archived_at: %w", err)
	}
	if h.DeletedAt, err = parseTimePtr(deletedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse deleted_at: %w", err)
	}
	return h, nil
}

func (s *Store) collectHabits(query string, args ...any) ([]models.Habit, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) AddHabit(habit models.Habit) error {
	_, err := s.exec(`INSERT INTO habits (`+habitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.UserID, habit.Title, habit.Category, habit.Frequency, habit.Description, habit.Streak,
		formatTime(habit.CreatedAt), formatTimePtr(habit.ArchivedAt), formatTimePtr(habit.DeletedAt))
	return err
}

// GetHabit returns a habit that has not been deleted.
func (s *Store) GetHabit(id string) (models.Habit, error) {
	h, err := scanHabit(s.queryRow("SELECT "+habitColumns+" FROM habits WHERE id = ? AND deleted_at IS NULL", id))
	if err != nil {
		return models.Habit{}, mapNoRows(err, "habit", id)
	}
	return h, nil
}

// GetHabitIncludingDeleted returns a habit regardless of soft deletion.
func (s *Store) GetHabitIncludingDeleted(id string) (models.Habit, error) {
	h, err := scanHabit(s.queryRow("SELECT "+habitColumns+" FROM habits WHERE id = ?", id))
	if err != nil {
		return models.Habit{}, mapNoRows(err, "habit", id)
	}
	return h, nil
}

func (s *Store) GetHabitsByUser(userID string, includeArchived, includeDeleted bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE user_id = ?"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	if !includeArchived {
		query += " AND archived_at IS NULL"
	}
	query += " ORDER BY created_at"
	return s.collectHabits(query, userID)
}

// GetAllActiveHabits returns every non-archived, non-deleted habit across users.
func (s *Store) GetAllActiveHabits() ([]models.Habit, error) {
	return s.collectHabits("SELECT " + habitColumns + " FROM habits WHERE deleted_at IS NULL AND archived_at IS NULL ORDER BY created_at")
}

func (s *Store) UpdateHabit(habit models.Habit) error {
	return s.execOne(apperrors.NotFoundf("habit %q", habit.ID), `UPDATE habits
SET title = ?, category = ?, frequency = ?, description = ?
WHERE id = ? AND deleted_at IS NULL`,
		habit.Title, habit.Category, habit.Frequency, habit.Description, habit.ID)
}

func (s *Store) UpdateHabitStreak(id string, streak int) error {
	return s.execOne(apperrors.NotFoundf("habit %q", id), "UPDATE habits SET streak = ? WHERE id = ?", streak, id)
}

func (s *Store) ArchiveHabit(id string) error {
	return s.execOne(apperrors.NotFoundf("habit %q not found or already archived", id),
		"UPDATE habits SET archived_at = ? WHERE id = ? AND archived_at IS NULL AND deleted_at IS NULL",
		formatTime(time.Now()), id)
}

func (s *Store) UnarchiveHabit(id string) error {
	return s.execOne(apperrors.NotFoundf("habit %q not found or not archived", id),
		"UPDATE habits SET archived_at = NULL WHERE id = ? AND archived_at IS NOT NULL AND deleted_at IS NULL", id)
}

func (s *Store) DeleteHabit(id string) error {
	return s.execOne(apperrors.NotFoundf("habit %q not found or already deleted", id),
		"UPDATE habits SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", formatTime(time.Now()), id)
}

func (s *Store) RestoreHabit(id string) error {
	return s.execOne(apperrors.NotFoundf("habit %q not found or not deleted", id),
		"UPDATE habits SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL", id)
}

const habitLogColumns = "id, habit_id, day, note, created_at"

func scanHabitLog(row scanner) (models.HabitLog, error) {
	var l models.HabitLog
	var createdAt string
	if err := row.Scan(&l.ID, &l.HabitID, &l.Day, &l.Note, &createdAt); err != nil {
		return models.HabitLog{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	l.CreatedAt = t
	return l, nil
}

func (s *Store) collectHabitLogs(query string, args ...any) ([]models.HabitLog, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.HabitLog
	for rows.Next() {
		l, err := scanHabitLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// AddHabitLog records a completion. A second log for the same day is a conflict.
func (s *Store) AddHabitLog(log models.HabitLog) error {
	res, err := s.exec(`INSERT INTO habit_logs (`+habitLogColumns+`) VALUES (?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`, log.ID, log.HabitID, log.Day, log.Note, formatTime(log.CreatedAt))
	if err != nil {
		return err
	}
	return requireRow(res, apperrors.Conflictf("habit %q already logged on %s", log.HabitID, log.Day))
}

func (s *Store) GetHabitLog(habitID, day string) (models.HabitLog, error) {
	l, err := scanHabitLog(s.queryRow("SELECT "+habitLogColumns+" FROM habit_logs WHERE habit_id = ? AND day = ?", habitID, day))
	if err != nil {
		return models.HabitLog{}, mapNoRows(err, "habit log", habitID+"@"+day)
	}
	return l, nil
}

func (s *Store) DeleteHabitLog(habitID, day string) error {
	return s.execOne(apperrors.NotFoundf("habit log %s@%s", habitID, day),
		"DELETE FROM habit_logs WHERE habit_id = ? AND day = ?", habitID, day)
}

func (s *Store) GetHabitLogs(habitID string) ([]models.HabitLog, error) {
	return s.collectHabitLogs("SELECT "+habitLogColumns+" FROM habit_logs WHERE habit_id = ? ORDER BY day", habitID)
}

func (s *Store) GetHabitLogsInRange(habitID, from, to string) ([]models.HabitLog, error) {
	return s.collectHabitLogs("SELECT "+habitLogColumns+" FROM habit_logs WHERE habit_id = ? AND day >= ? AND day <= ? ORDER BY day",
		habitID, from, to)
}

// CountHabitLogsByUser counts completions across the user's non-deleted habits.
func (s *Store) CountHabitLogsByUser(userID string) (int, error) {
	var n int
	err := s.queryRow(`SELECT COUNT(*) FROM habit_logs l
JOIN habits h ON h.id = l.habit_id
WHERE h.user_id = ? AND h.deleted_at IS NULL`, userID).Scan(&n)
	return n, err
}

package sqldb

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const taskColumns = "id, user_id, title, priority, completed, completed_at, day, order_index, ai_suggested, created_at"

func scanTask(row scanner) (models.DailyTask, error) {
	var t models.DailyTask
	var priority, createdAt string
	var completedAt sql.NullString

	err := row.Scan(&t.ID, &t.UserID, &t.Title, &priority, &t.Completed, &completedAt, &t.Day,
		&t.OrderIndex, &t.AISuggested, &createdAt)
	if err != nil {
		return models.DailyTask{}, err
	}
	t.Priority = constants.TaskPriority(priority)

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.DailyTask{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if t.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return models.DailyTask{}, fmt.Errorf("failed to parse completed_at: %w", err)
	}
	return t, nil
}

func (s *Store) AddTask(task models.DailyTask) error {
	_, err := s.exec(`INSERT INTO daily_tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, string(task.Priority), task.Completed, formatTimePtr(task.CompletedAt),
		task.Day, task.OrderIndex, task.AISuggested, formatTime(task.CreatedAt))
	return err
}

func (s *Store) GetTask(id string) (models.DailyTask, error) {
	t, err := scanTask(s.queryRow("SELECT "+taskColumns+" FROM daily_tasks WHERE id = ?", id))
	if err != nil {
		return models.DailyTask{}, mapNoRows(err, "task", id)
	}
	return t, nil
}

func (s *Store) GetTasksByDay(userID, day string) ([]models.DailyTask, error) {
	rows, err := s.query("SELECT "+taskColumns+" FROM daily_tasks WHERE user_id = ? AND day = ? ORDER BY order_index, created_at",
		userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.DailyTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// NextTaskOrder returns the order index that appends a task to the day's list.
func (s *Store) NextTaskOrder(userID, day string) (int, error) {
	var maxOrder sql.NullInt64
	err := s.queryRow("SELECT MAX(order_index) FROM daily_tasks WHERE user_id = ? AND day = ?", userID, day).Scan(&maxOrder)
	if err != nil {
		return 0, err
	}
	if !maxOrder.Valid {
		return 0, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

func (s *Store) UpdateTask(task models.DailyTask) error {
	return s.execOne(apperrors.NotFoundf("task %q", task.ID), `UPDATE daily_tasks
SET title = ?, priority = ?, completed = ?, completed_at = ?, day = ?, order_index = ?, ai_suggested = ?
WHERE id = ?`,
		task.Title, string(task.Priority), task.Completed, formatTimePtr(task.CompletedAt), task.Day,
		task.OrderIndex, task.AISuggested, task.ID)
}

// ReorderTasks assigns order_index by position in ids within one transaction.
func (s *Store) ReorderTasks(ids []string) error {
	return s.withTx(func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := s.txExec(tx, "UPDATE daily_tasks SET order_index = ? WHERE id = ?", i, id)
			if err != nil {
				return err
			}
			if err := requireRow(res, apperrors.NotFoundf("task %q", id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteTask(id string) error {
	return s.execOne(apperrors.NotFoundf("task %q", id), "DELETE FROM daily_tasks WHERE id = ?", id)
}

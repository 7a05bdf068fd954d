package service

import (
	"context"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type TaskInput struct {
	Title       string `json:"title"`
	Priority    string `json:"priority"`
	Day         string `json:"day"`
	AISuggested bool   `json:"ai_suggested,omitempty"`
}

type TaskPatch struct {
	Title    *string `json:"title,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Day      *string `json:"day,omitempty"`
}

func (s *Service) AddTask(ctx context.Context, userID string, in TaskInput) (models.DailyTask, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.DailyTask{}, err
	}
	cal, err := s.calendar()
	if err != nil {
		return models.DailyTask{}, err
	}
	return s.addTask(userID, in, cal)
}

func (s *Service) addTask(userID string, in TaskInput, cal calendar) (models.DailyTask, error) {
	title, err := validation.TaskTitle(in.Title)
	if err != nil {
		return models.DailyTask{}, err
	}
	priority, err := validation.Priority(in.Priority)
	if err != nil {
		return models.DailyTask{}, err
	}
	day, err := resolveDay(in.Day, cal)
	if err != nil {
		return models.DailyTask{}, err
	}
	order, err := s.store.NextTaskOrder(userID, day)
	if err != nil {
		return models.DailyTask{}, err
	}

	t := models.DailyTask{
		ID:          newID(),
		UserID:      userID,
		Title:       title,
		Priority:    priority,
		Day:         day,
		OrderIndex:  order,
		AISuggested: in.AISuggested,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.AddTask(t); err != nil {
		return models.DailyTask{}, err
	}
	return t, nil
}

// ListTasks returns the day's tasks ordered by order_index then creation.
func (s *Service) ListTasks(ctx context.Context, userID, day string) ([]models.DailyTask, error) {
	if _, err := s.requireUser(userID); err != nil {
		return nil, err
	}
	cal, err := s.calendar()
	if err != nil {
		return nil, err
	}
	if day, err = resolveDay(day, cal); err != nil {
		return nil, err
	}
	return s.store.GetTasksByDay(userID, day)
}

func (s *Service) ownedTask(userID, taskID string) (models.DailyTask, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.DailyTask{}, err
	}
	t, err := s.store.GetTask(taskID)
	if err != nil {
		return models.DailyTask{}, err
	}
	if t.UserID != userID {
		return models.DailyTask{}, apperrors.Forbiddenf("task %q belongs to another user", taskID)
	}
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, userID, taskID string) (models.DailyTask, error) {
	return s.ownedTask(userID, taskID)
}

// ToggleTask flips completion, setting or clearing completed_at.
func (s *Service) ToggleTask(ctx context.Context, userID, taskID string) (models.DailyTask, error) {
	t, err := s.ownedTask(userID, taskID)
	if err != nil {
		return models.DailyTask{}, err
	}
	t.Completed = !t.Completed
	if t.Completed {
		now := s.now().UTC()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	if err := s.store.UpdateTask(t); err != nil {
		return models.DailyTask{}, err
	}
	return t, nil
}

// UpdateTask applies patch. Moving a task to another day appends it to
// that day's list.
func (s *Service) UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) (models.DailyTask, error) {
	t, err := s.ownedTask(userID, taskID)
	if err != nil {
		return models.DailyTask{}, err
	}
	if patch.Title != nil {
		if t.Title, err = validation.TaskTitle(*patch.Title); err != nil {
			return models.DailyTask{}, err
		}
	}
	if patch.Priority != nil {
		if t.Priority, err = validation.Priority(*patch.Priority); err != nil {
			return models.DailyTask{}, err
		}
	}
	if patch.Day != nil && *patch.Day != t.Day {
		if err := validation.Day("day", *patch.Day); err != nil {
			return models.DailyTask{}, err
		}
		order, err := s.store.NextTaskOrder(userID, *patch.Day)
		if err != nil {
			return models.DailyTask{}, err
		}
		t.Day, t.OrderIndex = *patch.Day, order
	}
	if err := s.store.UpdateTask(t); err != nil {
		return models.DailyTask{}, err
	}
	return t, nil
}

// ReorderTasks sets the order of a day's tasks. ids must name exactly the
// tasks of that day, each once.
func (s *Service) ReorderTasks(ctx context.Context, userID, day string, ids []string) error {
	tasks, err := s.ListTasks(ctx, userID, day)
	if err != nil {
		return err
	}
	if len(ids) != len(tasks) {
		return apperrors.Invalidf("expected %d task ids, got %d", len(tasks), len(ids))
	}
	onDay := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		onDay[t.ID] = true
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !onDay[id] {
			return apperrors.Invalidf("task %q is not scheduled on that day", id)
		}
		if seen[id] {
			return apperrors.Invalidf("task %q listed twice", id)
		}
		seen[id] = true
	}
	return s.store.ReorderTasks(ids)
}

func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := s.ownedTask(userID, taskID); err != nil {
		return err
	}
	return s.store.DeleteTask(taskID)
}

// CarryOverTasks moves the incomplete tasks of from onto to, after any
// tasks already there, and returns how many moved.
func (s *Service) CarryOverTasks(ctx context.Context, userID, from, to string) (int, error) {
	if _, err := s.requireUser(userID); err != nil {
		return 0, err
	}
	cal, err := s.calendar()
	if err != nil {
		return 0, err
	}
	if from == "" {
		if from, err = utils.AddDays(cal.today, -1); err != nil {
			return 0, err
		}
	}
	if err := validation.Day("from", from); err != nil {
		return 0, err
	}
	if to, err = resolveDay(to, cal); err != nil {
		return 0, err
	}
	if from == to {
		return 0, apperrors.Invalidf("cannot carry tasks over onto the same day")
	}

	tasks, err := s.store.GetTasksByDay(userID, from)
	if err != nil {
		return 0, err
	}
	next, err := s.store.NextTaskOrder(userID, to)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		t.Day, t.OrderIndex = to, next
		if err := s.store.UpdateTask(t); err != nil {
			return moved, err
		}
		next++
		moved++
	}
	if moved > 0 {
		logger.Info("Carried over tasks", "user", userID, "from", from, "to", to, "count", moved)
	}
	return moved, nil
}

package service

import (
	"context"
	"strings"

	"github.com/julianstephens/habitual/internal/coach"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// AcceptResult lists what AcceptSuggestion created.
type AcceptResult struct {
	Habits  []models.Habit     `json:"habits"`
	Tasks   []models.DailyTask `json:"tasks"`
	Skipped []string           `json:"skipped,omitempty"` // habit titles the user already had
}

// SuggestRoutine asks the coach for a routine towards goal, telling it
// which habits the user already tracks.
func (s *Service) SuggestRoutine(ctx context.Context, userID, goal string) (models.Suggestion, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.Suggestion{}, err
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return models.Suggestion{}, apperrors.Invalidf("goal cannot be empty")
	}
	hs, err := s.store.GetHabitsByUser(userID, true, false)
	if err != nil {
		return models.Suggestion{}, err
	}
	req := coach.Request{Goal: goal}
	for _, h := range hs {
		req.ExistingHabits = append(req.ExistingHabits, h.Title)
	}

	sug, err := s.coach.Suggest(ctx, req)
	if err != nil {
		return models.Suggestion{}, err
	}
	return coach.Sanitize(sug)
}

// AcceptSuggestion creates the suggested habits, skipping titles the user
// already has, and schedules the suggested tasks on day.
func (s *Service) AcceptSuggestion(ctx context.Context, userID string, sug models.Suggestion, day string) (AcceptResult, error) {
	if _, err := s.requireUser(userID); err != nil {
		return AcceptResult{}, err
	}
	sug, err := coach.Sanitize(sug)
	if err != nil {
		return AcceptResult{}, apperrors.Invalidf("%v", err)
	}
	cal, err := s.calendar()
	if err != nil {
		return AcceptResult{}, err
	}
	if day, err = resolveDay(day, cal); err != nil {
		return AcceptResult{}, err
	}

	existing, err := s.store.GetHabitsByUser(userID, true, false)
	if err != nil {
		return AcceptResult{}, err
	}
	have := make(map[string]bool, len(existing))
	for _, h := range existing {
		have[strings.ToLower(h.Title)] = true
	}

	res := AcceptResult{Habits: []models.Habit{}, Tasks: []models.DailyTask{}}
	for _, hs := range sug.Habits {
		if have[strings.ToLower(hs.Title)] {
			res.Skipped = append(res.Skipped, hs.Title)
			continue
		}
		h, err := s.CreateHabit(ctx, userID, HabitInput{
			Title:       hs.Title,
			Category:    hs.Category,
			Frequency:   hs.Frequency,
			Description: hs.Description,
		})
		if err != nil {
			return res, err
		}
		have[strings.ToLower(h.Title)] = true
		res.Habits = append(res.Habits, h)
	}
	for _, ts := range sug.Tasks {
		t, err := s.addTask(userID, TaskInput{Title: ts.Title, Priority: string(ts.Priority), Day: day, AISuggested: true}, cal)
		if err != nil {
			return res, err
		}
		res.Tasks = append(res.Tasks, t)
	}
	logger.Info("Coach suggestion accepted", "user", userID, "habits", len(res.Habits), "tasks", len(res.Tasks), "skipped", len(res.Skipped))
	return res, nil
}

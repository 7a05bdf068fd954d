package service

import (
	"context"
	"errors"
	"testing"

	"github.com/julianstephens/habitual/internal/coach"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

type stubCoach struct {
	got coach.Request
	sug models.Suggestion
	err error
}

func (c *stubCoach) Suggest(_ context.Context, req coach.Request) (models.Suggestion, error) {
	c.got = req
	return c.sug, c.err
}

func TestSuggestRoutine(t *testing.T) {
	stub := &stubCoach{sug: models.Suggestion{
		Summary: "Move more",
		Habits: []models.HabitSuggestion{
			{Title: "Walk", Frequency: "daily"},
			{Title: "Swim", Frequency: "fortnightly"},
		},
		Tasks: []models.TaskSuggestion{{Title: "Buy shoes", Priority: "high"}},
	}}
	svc, _ := setupService(t, WithCoach(stub))
	ctx := context.Background()
	alice := mustUser(t, svc, "alice")
	mustHabit(t, svc, alice.ID, "Stretch", "daily")

	sug, err := svc.SuggestRoutine(ctx, alice.ID, "get fit")
	if err != nil {
		t.Fatalf("SuggestRoutine failed: %v", err)
	}
	if len(stub.got.ExistingHabits) != 1 || stub.got.ExistingHabits[0] != "Stretch" {
		t.Errorf("coach not told about existing habits: %+v", stub.got)
	}
	if len(sug.Habits) != 1 || sug.Habits[0].Title != "Walk" {
		t.Errorf("expected the invalid habit dropped, got %+v", sug.Habits)
	}

	if _, err := svc.SuggestRoutine(ctx, alice.ID, "  "); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty goal, got %v", err)
	}
	stub.err = errors.New("model unavailable")
	if _, err := svc.SuggestRoutine(ctx, alice.ID, "get fit"); err == nil {
		t.Error("expected coach error to propagate")
	}
}

func TestAcceptSuggestion(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	alice := mustUser(t, svc, "alice")
	mustHabit(t, svc, alice.ID, "Read", "daily")

	sug := models.Suggestion{
		Habits: []models.HabitSuggestion{
			{Title: "read", Frequency: "daily"},
			{Title: "Journal", Category: "Mindfulness", Frequency: "weekdays"},
		},
		Tasks: []models.TaskSuggestion{{Title: "Buy a notebook", Priority: "low"}},
	}
	res, err := svc.AcceptSuggestion(ctx, alice.ID, sug, "")
	if err != nil {
		t.Fatalf("AcceptSuggestion failed: %v", err)
	}
	if len(res.Habits) != 1 || res.Habits[0].Title != "Journal" || res.Habits[0].Category != "mindfulness" {
		t.Errorf("unexpected habits %+v", res.Habits)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "read" {
		t.Errorf("expected the existing habit skipped, got %v", res.Skipped)
	}
	if len(res.Tasks) != 1 || !res.Tasks[0].AISuggested || res.Tasks[0].Priority != constants.PriorityLow {
		t.Errorf("unexpected tasks %+v", res.Tasks)
	}

	if _, err := svc.AcceptSuggestion(ctx, alice.ID, models.Suggestion{}, ""); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for an empty suggestion, got %v", err)
	}
}

func TestSuggestRoutine_OfflineTemplates(t *testing.T) {
	svc, _ := setupService(t)
	alice := mustUser(t, svc, "alice")

	sug, err := svc.SuggestRoutine(context.Background(), alice.ID, "sleep better")
	if err != nil {
		t.Fatalf("SuggestRoutine failed: %v", err)
	}
	if sug.Source != "templates" || len(sug.Habits) == 0 {
		t.Errorf("expected a template routine, got %+v", sug)
	}
}

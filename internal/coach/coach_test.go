package coach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    models.Suggestion
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"summary":"Sleep better","habits":[{"title":"Bed by 23:00","category":"Sleep","frequency":"daily"}],"tasks":[{"title":"Buy blackout curtains","priority":"high"}]}`,
			want: models.Suggestion{
				Summary: "Sleep better",
				Habits:  []models.HabitSuggestion{{Title: "Bed by 23:00", Category: "sleep", Frequency: "daily"}},
				Tasks:   []models.TaskSuggestion{{Title: "Buy blackout curtains", Priority: constants.PriorityHigh}},
			},
		},
		{
			name: "fenced with prose",
			raw:  "Here you go!\n```json\n{\"summary\":\"Run\",\"habits\":[{\"title\":\"Run\",\"frequency\":\"3X_WEEK\"}]}\n```\nGood luck.",
			want: models.Suggestion{
				Summary: "Run",
				Habits:  []models.HabitSuggestion{{Title: "Run", Category: constants.DefaultHabitCategory, Frequency: "3x_week"}},
			},
		},
		{
			name: "drops invalid entries",
			raw: `{"summary":"Mixed","habits":[
				{"title":"Swim","frequency":"hourly"},
				{"title":"","frequency":"daily"},
				{"title":"Stretch","frequency":"weekdays"},
				{"title":"stretch","frequency":"daily"}],
				"tasks":[{"title":"Call","priority":"urgent"},{"title":"Plan","priority":""}]}`,
			want: models.Suggestion{
				Summary: "Mixed",
				Habits:  []models.HabitSuggestion{{Title: "Stretch", Category: constants.DefaultHabitCategory, Frequency: "weekdays"}},
				Tasks:   []models.TaskSuggestion{{Title: "Plan", Priority: constants.PriorityMedium}},
			},
		},
		{
			name:    "nothing valid",
			raw:     `{"summary":"x","habits":[{"title":"Swim","frequency":"hourly"}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "I cannot help with that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestion(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSuggestion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseSuggestion() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSanitize_CapsSuggestions(t *testing.T) {
	var s models.Suggestion
	for i := 0; i < constants.CoachMaxSuggestions+3; i++ {
		s.Habits = append(s.Habits, models.HabitSuggestion{Title: strings.Repeat("h", i+1), Frequency: "daily"})
	}
	got, err := Sanitize(s)
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if len(got.Habits) != constants.CoachMaxSuggestions {
		t.Errorf("expected %d habits, got %d", constants.CoachMaxSuggestions, len(got.Habits))
	}
}

func TestSanitize_TruncatesLongDescription(t *testing.T) {
	long := strings.Repeat("é", constants.MaxDescriptionLength+20)
	got, err := Sanitize(models.Suggestion{
		Habits: []models.HabitSuggestion{{Title: "Walk", Frequency: "daily", Description: long}},
	})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	want := strings.Repeat("é", constants.MaxDescriptionLength)
	if got.Habits[0].Description != want {
		t.Errorf("expected description truncated to %d runes, got %d", constants.MaxDescriptionLength, len([]rune(got.Habits[0].Description)))
	}
}

func TestTemplates_MatchesKeywords(t *testing.T) {
	tests := []struct {
		goal         string
		wantCategory string
	}{
		{"I want to sleep better", "sleep"},
		{"Get fit and run a 10k", "fitness"},
		{"stop procrastinating at work", "focus"},
		{"Feel less stressed", "mindfulness"},
		{"learn Spanish", "learning"},
	}

	for _, tt := range tests {
		t.Run(tt.goal, func(t *testing.T) {
			s, err := Templates{}.Suggest(context.Background(), Request{Goal: tt.goal})
			if err != nil {
				t.Fatalf("Suggest failed: %v", err)
			}
			if len(s.Habits) == 0 || s.Habits[0].Category != tt.wantCategory {
				t.Errorf("expected %s routine, got %+v", tt.wantCategory, s.Habits)
			}
			if _, err := Sanitize(s); err != nil {
				t.Errorf("template routine should pass sanitization: %v", err)
			}
		})
	}
}

func TestTemplates_SkipsExistingHabits(t *testing.T) {
	s, err := Templates{}.Suggest(context.Background(), Request{
		Goal:           "sleep",
		ExistingHabits: []string{"lights out by 23:00"},
	})
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	for _, h := range s.Habits {
		if strings.EqualFold(h.Title, "Lights out by 23:00") {
			t.Error("existing habit should not be suggested again")
		}
	}
}

func TestTemplates_Default(t *testing.T) {
	s, err := Templates{}.Suggest(context.Background(), Request{Goal: "be a better person"})
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if s.Summary != defaultTemplate.summary {
		t.Errorf("expected default routine, got %q", s.Summary)
	}
}

type stubCoach struct {
	s   models.Suggestion
	err error
}

func (c stubCoach) Suggest(context.Context, Request) (models.Suggestion, error) {
	return c.s, c.err
}

func TestFallback(t *testing.T) {
	primary := stubCoach{s: models.Suggestion{Summary: "primary"}}
	broken := stubCoach{err: errors.New("quota exceeded")}
	secondary := stubCoach{s: models.Suggestion{Summary: "secondary"}}

	got, err := Fallback{Primary: primary, Secondary: secondary}.Suggest(context.Background(), Request{})
	if err != nil || got.Summary != "primary" {
		t.Errorf("expected primary result, got %+v, %v", got, err)
	}

	got, err = Fallback{Primary: broken, Secondary: secondary}.Suggest(context.Background(), Request{})
	if err != nil || got.Summary != "secondary" {
		t.Errorf("expected fallback result, got %+v, %v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Fallback{Primary: broken, Secondary: secondary}).Suggest(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation to propagate, got %v", err)
	}
}

func TestNew_WithoutKeyUsesTemplates(t *testing.T) {
	if _, ok := New(context.Background(), "", "").(Templates); !ok {
		t.Error("expected Templates coach without an API key")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(Request{Goal: "  run more ", ExistingHabits: []string{"Run", "Stretch"}})
	if !strings.Contains(p, "Goal: run more") || !strings.Contains(p, "Run; Stretch") {
		t.Errorf("unexpected prompt: %q", p)
	}
}

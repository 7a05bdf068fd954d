package coach

import (
	"context"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

type template struct {
	keywords []string
	summary  string
	habits   []models.HabitSuggestion
	tasks    []models.TaskSuggestion
}

var templates = []template{
	{
		keywords: []string{"sleep", "tired", "rest", "insomnia", "bed"},
		summary:  "A wind-down routine to protect your sleep.",
		habits: []models.HabitSuggestion{
			{Title: "Lights out by 23:00", Category: "sleep", Frequency: "daily"},
			{Title: "No screens the last hour", Category: "sleep", Frequency: "5x_week"},
			{Title: "Morning daylight walk", Category: "sleep", Frequency: "weekdays"},
		},
		tasks: []models.TaskSuggestion{
			{Title: "Set a bedtime alarm", Priority: constants.PriorityHigh},
			{Title: "Move the phone charger out of the bedroom", Priority: constants.PriorityMedium},
		},
	},
	{
		keywords: []string{"fit", "run", "gym", "weight", "exercise", "strength", "health"},
		summary:  "Build fitness with regular, achievable sessions.",
		habits: []models.HabitSuggestion{
			{Title: "Workout", Category: "fitness", Frequency: "3x_week"},
			{Title: "10k steps", Category: "fitness", Frequency: "daily"},
			{Title: "Long walk or hike", Category: "fitness", Frequency: "weekends"},
		},
		tasks: []models.TaskSuggestion{
			{Title: "Plan this week's workouts", Priority: constants.PriorityHigh},
			{Title: "Pack a gym bag", Priority: constants.PriorityLow},
		},
	},
	{
		keywords: []string{"focus", "work", "productive", "procrastinat", "study", "deep"},
		summary:  "Protect blocks of focused time and review them.",
		habits: []models.HabitSuggestion{
			{Title: "Two hours of deep work", Category: "focus", Frequency: "weekdays"},
			{Title: "Plan tomorrow before logging off", Category: "focus", Frequency: "weekdays"},
			{Title: "Weekly review", Category: "focus", Frequency: "weekly"},
		},
		tasks: []models.TaskSuggestion{
			{Title: "Pick today's single most important task", Priority: constants.PriorityHigh},
			{Title: "Turn off non-essential notifications", Priority: constants.PriorityMedium},
		},
	},
	{
		keywords: []string{"stress", "calm", "anxi", "mindful", "meditat", "mental"},
		summary:  "Small daily pauses to lower stress.",
		habits: []models.HabitSuggestion{
			{Title: "Meditate 10 minutes", Category: "mindfulness", Frequency: "daily"},
			{Title: "Journal", Category: "mindfulness", Frequency: "4x_week"},
			{Title: "Call a friend", Category: "mindfulness", Frequency: "weekly"},
		},
		tasks: []models.TaskSuggestion{
			{Title: "Install a meditation timer", Priority: constants.PriorityMedium},
		},
	},
	{
		keywords: []string{"learn", "read", "language", "book", "skill", "course"},
		summary:  "Steady practice beats cramming.",
		habits: []models.HabitSuggestion{
			{Title: "Read 20 pages", Category: "learning", Frequency: "daily"},
			{Title: "Practice for 30 minutes", Category: "learning", Frequency: "5x_week"},
			{Title: "Finish a course module", Category: "learning", Frequency: "weekly"},
		},
		tasks: []models.TaskSuggestion{
			{Title: "Choose the next book or course", Priority: constants.PriorityHigh},
		},
	},
}

var defaultTemplate = template{
	summary: "A balanced starter routine.",
	habits: []models.HabitSuggestion{
		{Title: "Drink water on waking", Category: "health", Frequency: "daily"},
		{Title: "Move for 30 minutes", Category: "fitness", Frequency: "3x_week"},
		{Title: "Tidy for 10 minutes", Category: constants.DefaultHabitCategory, Frequency: "weekdays"},
	},
	tasks: []models.TaskSuggestion{
		{Title: "Write down why this goal matters", Priority: constants.PriorityMedium},
	},
}

// Templates is an offline coach that matches the goal against built-in
// routines by keyword.
type Templates struct{}

func (Templates) Suggest(_ context.Context, req Request) (models.Suggestion, error) {
	goal := strings.ToLower(req.Goal)
	tpl := defaultTemplate
	best := 0
	for _, t := range templates {
		score := 0
		for _, kw := range t.keywords {
			if strings.Contains(goal, kw) {
				score++
			}
		}
		if score > best {
			best, tpl = score, t
		}
	}

	existing := make(map[string]bool, len(req.ExistingHabits))
	for _, title := range req.ExistingHabits {
		existing[strings.ToLower(strings.TrimSpace(title))] = true
	}

	s := models.Suggestion{Summary: tpl.summary, Source: "templates"}
	for _, h := range tpl.habits {
		if !existing[strings.ToLower(h.Title)] {
			s.Habits = append(s.Habits, h)
		}
	}
	s.Tasks = append(s.Tasks, tpl.tasks...)
	return s, nil
}

package models

import "github.com/julianstephens/habitual/internal/constants"

// Suggestion is a routine proposed by the coach for the user to accept.
type Suggestion struct {
	Summary string            `json:"summary"`
	Habits  []HabitSuggestion `json:"habits"`
	Tasks   []TaskSuggestion  `json:"tasks"`
	Source  string            `json:"source,omitempty"` // which coach produced it
}

type HabitSuggestion struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
	Description string `json:"description,omitempty"`
}

type TaskSuggestion struct {
	Title    string                 `json:"title"`
	Priority constants.TaskPriority `json:"priority"`
}

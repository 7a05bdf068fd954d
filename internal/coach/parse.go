package coach

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/validation"
)

// ParseSuggestion extracts a suggestion from model output. The JSON may be
// wrapped in a markdown fence or surrounded by prose.
func ParseSuggestion(raw string) (models.Suggestion, error) {
	body := extractJSON(raw)
	if body == "" {
		return models.Suggestion{}, fmt.Errorf("no JSON object in coach response")
	}

	var s models.Suggestion
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return models.Suggestion{}, fmt.Errorf("failed to decode coach response: %w", err)
	}
	return Sanitize(s)
}

func extractJSON(raw string) string {
	text := strings.TrimSpace(strings.TrimPrefix(raw, "\xef\xbb\xbf"))

	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		// skip an info string such as "json"
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			text = strings.TrimSpace(rest[:j])
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// Sanitize normalizes a suggestion and drops entries that would be
// rejected on accept. It fails when nothing usable remains.
func Sanitize(s models.Suggestion) (models.Suggestion, error) {
	out := models.Suggestion{Summary: strings.TrimSpace(s.Summary), Source: s.Source}
	seen := make(map[string]bool)

	for _, h := range s.Habits {
		if len(out.Habits) == constants.CoachMaxSuggestions {
			break
		}
		title, err := validation.HabitTitle(h.Title)
		if err != nil {
			logger.Debug("Dropping coach habit", "title", h.Title, "error", err)
			continue
		}
		freq, err := validation.Frequency(h.Frequency)
		if err != nil {
			logger.Debug("Dropping coach habit", "title", h.Title, "frequency", h.Frequency)
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true

		category := strings.ToLower(strings.TrimSpace(h.Category))
		if category == "" {
			category = constants.DefaultHabitCategory
		}
		desc, err := validation.Description(h.Description)
		if err != nil {
			logger.Debug("Truncating coach habit description", "title", title, "error", err)
			desc = truncate(strings.TrimSpace(h.Description), constants.MaxDescriptionLength)
		}
		out.Habits = append(out.Habits, models.HabitSuggestion{
			Title:       title,
			Category:    category,
			Frequency:   freq,
			Description: desc,
		})
	}

	for _, t := range s.Tasks {
		if len(out.Tasks) == constants.CoachMaxSuggestions {
			break
		}
		title, err := validation.TaskTitle(t.Title)
		if err != nil {
			continue
		}
		priority, err := validation.Priority(string(t.Priority))
		if err != nil {
			logger.Debug("Dropping coach task", "title", t.Title, "priority", t.Priority)
			continue
		}
		out.Tasks = append(out.Tasks, models.TaskSuggestion{Title: title, Priority: priority})
	}

	if len(out.Habits) == 0 && len(out.Tasks) == 0 {
		return models.Suggestion{}, fmt.Errorf("coach response contained no valid habits or tasks")
	}
	return out, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

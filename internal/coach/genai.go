package coach

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

const systemPrompt = `You are a supportive habit coach. Given a goal, propose a small routine.
Reply with a single JSON object and nothing else:
{"summary": string,
 "habits": [{"title": string, "category": string, "frequency": string, "description": string}],
 "tasks": [{"title": string, "priority": "low"|"medium"|"high"}]}
frequency must be one of: daily, weekdays, weekends, weekly, monthly, or Nx_week with N from 1 to 7.
Keep titles under 60 characters. Suggest at most %d habits and %d tasks for today.`

// GenAI asks a Gemini model for a routine.
type GenAI struct {
	client *genai.Client
	model  string
}

func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = constants.DefaultCoachModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Suggest(ctx context.Context, req Request) (models.Suggestion, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			fmt.Sprintf(systemPrompt, constants.CoachMaxSuggestions, constants.CoachMaxSuggestions), genai.RoleUser),
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(req)), config)
	if err != nil {
		return models.Suggestion{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	s, err := ParseSuggestion(resp.Text())
	if err != nil {
		return models.Suggestion{}, err
	}
	s.Source = "gemini"
	return s, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", strings.TrimSpace(req.Goal))
	if len(req.ExistingHabits) > 0 {
		fmt.Fprintf(&b, "Habits I already track (do not repeat them): %s\n", strings.Join(req.ExistingHabits, "; "))
	}
	return b.String()
}

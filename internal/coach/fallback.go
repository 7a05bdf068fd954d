package coach

import (
	"context"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// Fallback uses Primary and falls back to Secondary when it fails.
type Fallback struct {
	Primary   Coach
	Secondary Coach
}

func (f Fallback) Suggest(ctx context.Context, req Request) (models.Suggestion, error) {
	if f.Primary != nil {
		s, err := f.Primary.Suggest(ctx, req)
		if err == nil {
			return s, nil
		}
		if ctx.Err() != nil {
			return models.Suggestion{}, ctx.Err()
		}
		logger.Warn("Coach failed, using offline suggestions", "error", err)
	}
	return f.Secondary.Suggest(ctx, req)
}

// New returns the GenAI coach backed by templates when an API key is
// available, and the templates alone otherwise.
func New(ctx context.Context, apiKey, model string) Coach {
	if apiKey == "" {
		return Templates{}
	}
	g, err := NewGenAI(ctx, apiKey, model)
	if err != nil {
		logger.Warn("GenAI coach unavailable", "error", err)
		return Templates{}
	}
	return Fallback{Primary: g, Secondary: Templates{}}
}

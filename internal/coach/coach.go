// Package coach proposes habit routines for a stated goal.
package coach

import (
	"context"
	"os"

	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/models"
)

// Request describes what the user wants help with.
type Request struct {
	Goal           string
	ExistingHabits []string // titles the user already tracks
}

type Coach interface {
	Suggest(ctx context.Context, req Request) (models.Suggestion, error)
}

// APIKeyEnv is checked before the OS keyring.
const APIKeyEnv = "GEMINI_API_KEY"

// ResolveAPIKey returns the Gemini API key from the environment or the OS
// keyring, or "" when neither has one.
func ResolveAPIKey() string {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}
	key, err := keyring.Get(keyring.CoachAPIKey)
	if err != nil {
		return ""
	}
	return key
}

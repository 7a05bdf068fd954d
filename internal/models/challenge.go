package models

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

type Challenge struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TargetValue int       `json:"target_value"`
	Unit        string    `json:"unit"`
	StartDay    string    `json:"start_day"` // YYYY-MM-DD
	EndDay      string    `json:"end_day"`   // YYYY-MM-DD, inclusive
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusOn derives the challenge state for today (YYYY-MM-DD).
// Date strings in DateFormat compare correctly as plain strings.
func (c Challenge) StatusOn(today string) constants.ChallengeStatus {
	switch {
	case today < c.StartDay:
		return constants.ChallengeUpcoming
	case today > c.EndDay:
		return constants.ChallengeEnded
	default:
		return constants.ChallengeActive
	}
}

type ChallengeParticipant struct {
	ChallengeID string     `json:"challenge_id"`
	UserID      string     `json:"user_id"`
	UserName    string     `json:"user_name,omitempty"`
	Progress    int        `json:"progress"`
	JoinedAt    time.Time  `json:"joined_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// LeaderboardEntry is a ranked participant. Tied progress shares a rank.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	ChallengeParticipant
	Percent int `json:"percent"`
}

// ChallengeResult is an ended challenge together with its winners.
type ChallengeResult struct {
	Challenge Challenge              `json:"challenge"`
	Winners   []ChallengeParticipant `json:"winners"`
}

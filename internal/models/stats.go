package models

// MemberStats is derived on read and never persisted.
type MemberStats struct {
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	Streak          int    `json:"streak"`
	HabitsCompleted int    `json:"habits_completed"`
	ChallengesWon   int    `json:"challenges_won"`
	CommitmentScore int    `json:"commitment_score"`
	Rank            string `json:"rank"`
	RankProgress    int    `json:"rank_progress"` // 0-100 towards the next rank
}

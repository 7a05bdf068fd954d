package stats

import "github.com/julianstephens/habitual/internal/models"

// Score weights.
const (
	PointsPerCompletion   = 10
	PointsPerStreakDay    = 5
	PointsPerChallengeWin = 50
)

// Tier is a named rank unlocked at a commitment score threshold.
type Tier struct {
	Name     string
	MinScore int
}

// Tiers is ordered by ascending threshold. Names are persisted by clients
// and must stay stable.
var Tiers = []Tier{
	{Name: "Rookie", MinScore: 0},
	{Name: "Bronze", MinScore: 100},
	{Name: "Silver", MinScore: 250},
	{Name: "Gold", MinScore: 500},
	{Name: "Platinum", MinScore: 1000},
	{Name: "Diamond", MinScore: 2000},
}

// Input holds the raw counters a member's stats are derived from.
type Input struct {
	UserID          string
	UserName        string
	Streak          int // best current streak across the member's active habits
	HabitsCompleted int // total habit logs
	ChallengesWon   int
}

// CommitmentScore weights completions, streak and challenge wins.
func CommitmentScore(habitsCompleted, streak, challengesWon int) int {
	return habitsCompleted*PointsPerCompletion + streak*PointsPerStreakDay + challengesWon*PointsPerChallengeWin
}

// RankFor returns the tier reached by score and the percentage of the way
// to the next tier. The top tier always reports 100.
func RankFor(score int) (Tier, int) {
	current := 0
	for i, t := range Tiers {
		if score >= t.MinScore {
			current = i
		}
	}
	if current == len(Tiers)-1 {
		return Tiers[current], 100
	}

	lo, hi := Tiers[current].MinScore, Tiers[current+1].MinScore
	progress := (score - lo) * 100 / (hi - lo)
	if progress < 0 {
		progress = 0
	}
	return Tiers[current], progress
}

// Compute derives a member's stats. Nothing here is persisted.
func Compute(in Input) models.MemberStats {
	score := CommitmentScore(in.HabitsCompleted, in.Streak, in.ChallengesWon)
	tier, progress := RankFor(score)
	return models.MemberStats{
		UserID:          in.UserID,
		UserName:        in.UserName,
		Streak:          in.Streak,
		HabitsCompleted: in.HabitsCompleted,
		ChallengesWon:   in.ChallengesWon,
		CommitmentScore: score,
		Rank:            tier.Name,
		RankProgress:    progress,
	}
}

package stats

import (
	"sort"

	"github.com/julianstephens/habitual/internal/models"
)

// RankParticipants orders participants by progress (desc), then by who
// reached the target first, then by join time, and assigns standard
// competition ranks: equal progress shares a rank and the next distinct
// progress skips ahead (1, 1, 3).
func RankParticipants(participants []models.ChallengeParticipant, target int) []models.LeaderboardEntry {
	sorted := make([]models.ChallengeParticipant, len(participants))
	copy(sorted, participants)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Progress != b.Progress {
			return a.Progress > b.Progress
		}
		switch {
		case a.CompletedAt != nil && b.CompletedAt == nil:
			return true
		case a.CompletedAt == nil && b.CompletedAt != nil:
			return false
		case a.CompletedAt != nil && b.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt):
			return a.CompletedAt.Before(*b.CompletedAt)
		}
		return a.JoinedAt.Before(b.JoinedAt)
	})

	entries := make([]models.LeaderboardEntry, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.Progress == sorted[i-1].Progress {
			rank = entries[i-1].Rank
		}
		entries[i] = models.LeaderboardEntry{
			Rank:                 rank,
			ChallengeParticipant: p,
			Percent:              progressPercent(p.Progress, target),
		}
	}
	return entries
}

// Winners returns the rank-one participants of a leaderboard. Nobody wins
// with zero progress.
func Winners(entries []models.LeaderboardEntry) []models.ChallengeParticipant {
	var winners []models.ChallengeParticipant
	for _, e := range entries {
		if e.Rank != 1 || e.Progress <= 0 {
			break
		}
		winners = append(winners, e.ChallengeParticipant)
	}
	return winners
}

// SortMemberStats orders members by commitment score, then streak, then name.
func SortMemberStats(members []models.MemberStats) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.CommitmentScore != b.CommitmentScore {
			return a.CommitmentScore > b.CommitmentScore
		}
		if a.Streak != b.Streak {
			return a.Streak > b.Streak
		}
		return a.UserName < b.UserName
	})
}

func progressPercent(progress, target int) int {
	if target <= 0 {
		return 0
	}
	p := progress * 100 / target
	if p > 100 {
		return 100
	}
	return p
}

package service

import (
	"context"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/stats"
)

// MemberStats derives userID's score and rank. Nothing is persisted.
func (s *Service) MemberStats(ctx context.Context, userID string) (models.MemberStats, error) {
	u, err := s.requireUser(userID)
	if err != nil {
		return models.MemberStats{}, err
	}
	cal, err := s.calendar()
	if err != nil {
		return models.MemberStats{}, err
	}
	return s.memberStats(u.ID, u.Name, cal)
}

func (s *Service) memberStats(userID, name string, cal calendar) (models.MemberStats, error) {
	in := stats.Input{UserID: userID, UserName: name}

	hs, err := s.store.GetHabitsByUser(userID, false, false)
	if err != nil {
		return models.MemberStats{}, err
	}
	for _, h := range hs {
		t, err := s.tracker(h, cal)
		if err != nil {
			return models.MemberStats{}, err
		}
		streak, err := t.CurrentStreak(cal.today)
		if err != nil {
			return models.MemberStats{}, err
		}
		in.Streak = max(in.Streak, streak)
	}

	if in.HabitsCompleted, err = s.store.CountHabitLogsByUser(userID); err != nil {
		return models.MemberStats{}, err
	}
	if in.ChallengesWon, err = s.challengesWon(userID, cal.today); err != nil {
		return models.MemberStats{}, err
	}
	return stats.Compute(in), nil
}

func (s *Service) challengesWon(userID, today string) (int, error) {
	ended, err := s.store.GetEndedChallengesForUser(userID, today)
	if err != nil {
		return 0, err
	}
	won := 0
	for _, c := range ended {
		winners, err := s.winners(c)
		if err != nil {
			return 0, err
		}
		for _, w := range winners {
			if w.UserID == userID {
				won++
				break
			}
		}
	}
	return won, nil
}

func (s *Service) winners(c models.Challenge) ([]models.ChallengeParticipant, error) {
	participants, err := s.store.GetParticipants(c.ID)
	if err != nil {
		return nil, err
	}
	return stats.Winners(stats.RankParticipants(participants, c.TargetValue)), nil
}

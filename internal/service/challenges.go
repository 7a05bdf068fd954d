package service

import (
	"context"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/validation"
)

type ChallengeInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetValue int    `json:"target_value"`
	Unit        string `json:"unit"`
	StartDay    string `json:"start_day"`
	EndDay      string `json:"end_day"`
}

// ChallengeSummary is a challenge with its derived status and the
// caller's participation.
type ChallengeSummary struct {
	models.Challenge
	Status       constants.ChallengeStatus `json:"status"`
	Participants int                       `json:"participants"`
	Joined       bool                      `json:"joined"`
	Progress     int                       `json:"progress"`
}

type LeaderboardView struct {
	Challenge models.Challenge          `json:"challenge"`
	Status    constants.ChallengeStatus `json:"status"`
	Entries   []models.LeaderboardEntry `json:"entries"`
}

// challengeForMember loads a challenge and checks that userID is in its group.
func (s *Service) challengeForMember(userID, challengeID string) (models.Challenge, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.Challenge{}, err
	}
	c, err := s.store.GetChallenge(challengeID)
	if err != nil {
		return models.Challenge{}, err
	}
	if _, err := s.member(userID, c.GroupID); err != nil {
		return models.Challenge{}, err
	}
	return c, nil
}

// CreateChallenge starts a challenge in groupID; the creator joins it.
func (s *Service) CreateChallenge(ctx context.Context, userID, groupID string, in ChallengeInput) (models.Challenge, error) {
	if _, err := s.member(userID, groupID); err != nil {
		return models.Challenge{}, err
	}
	title, err := validation.Text("title", in.Title, constants.MaxHabitTitleLength)
	if err != nil {
		return models.Challenge{}, err
	}
	desc, err := validation.Description(in.Description)
	if err != nil {
		return models.Challenge{}, err
	}
	if in.TargetValue <= 0 {
		return models.Challenge{}, apperrors.Invalidf("target must be positive, got %d", in.TargetValue)
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = constants.DefaultChallengeUnit
	}
	cal, err := s.calendar()
	if err != nil {
		return models.Challenge{}, err
	}
	start, err := resolveDay(in.StartDay, cal)
	if err != nil {
		return models.Challenge{}, err
	}
	if err := validation.Day("end_day", in.EndDay); err != nil {
		return models.Challenge{}, err
	}
	if in.EndDay < start {
		return models.Challenge{}, apperrors.Invalidf("end day %s is before start day %s", in.EndDay, start)
	}

	now := s.now().UTC()
	c := models.Challenge{
		ID:          newID(),
		GroupID:     groupID,
		Title:       title,
		Description: desc,
		TargetValue: in.TargetValue,
		Unit:        unit,
		StartDay:    start,
		EndDay:      in.EndDay,
		CreatedBy:   userID,
		CreatedAt:   now,
	}
	if err := s.store.AddChallenge(c); err != nil {
		return models.Challenge{}, err
	}
	if err := s.store.AddParticipant(models.ChallengeParticipant{ChallengeID: c.ID, UserID: userID, JoinedAt: now}); err != nil {
		return models.Challenge{}, err
	}
	s.publish(ctx, constants.EventGroupUpdated, groupID, userID)
	return c, nil
}

func (s *Service) ListChallenges(ctx context.Context, userID, groupID string) ([]ChallengeSummary, error) {
	if _, err := s.member(userID, groupID); err != nil {
		return nil, err
	}
	cal, err := s.calendar()
	if err != nil {
		return nil, err
	}
	cs, err := s.store.GetChallengesByGroup(groupID)
	if err != nil {
		return nil, err
	}
	out := make([]ChallengeSummary, 0, len(cs))
	for _, c := range cs {
		participants, err := s.store.GetParticipants(c.ID)
		if err != nil {
			return nil, err
		}
		sum := ChallengeSummary{Challenge: c, Status: c.StatusOn(cal.today), Participants: len(participants)}
		for _, p := range participants {
			if p.UserID == userID {
				sum.Joined, sum.Progress = true, p.Progress
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) JoinChallenge(ctx context.Context, userID, challengeID string) error {
	c, err := s.challengeForMember(userID, challengeID)
	if err != nil {
		return err
	}
	cal, err := s.calendar()
	if err != nil {
		return err
	}
	if c.StatusOn(cal.today) == constants.ChallengeEnded {
		return apperrors.Invalidf("challenge %q has ended", c.Title)
	}
	p := models.ChallengeParticipant{ChallengeID: c.ID, UserID: userID, JoinedAt: s.now().UTC()}
	if err := s.store.AddParticipant(p); err != nil {
		return err
	}
	s.publish(ctx, constants.EventChallengeProgress, c.GroupID, userID)
	return nil
}

// AddProgress adds delta (which may be negative) to the caller's progress.
// Concurrent calls are applied atomically by the store.
func (s *Service) AddProgress(ctx context.Context, userID, challengeID string, delta int) (models.ChallengeParticipant, error) {
	return s.updateProgress(ctx, userID, challengeID, func(c models.Challenge, at time.Time) (models.ChallengeParticipant, error) {
		return s.store.AddParticipantProgress(c.ID, userID, delta, c.TargetValue, at)
	})
}

func (s *Service) SetProgress(ctx context.Context, userID, challengeID string, value int) (models.ChallengeParticipant, error) {
	return s.updateProgress(ctx, userID, challengeID, func(c models.Challenge, at time.Time) (models.ChallengeParticipant, error) {
		return s.store.SetParticipantProgress(c.ID, userID, value, c.TargetValue, at)
	})
}

func (s *Service) updateProgress(ctx context.Context, userID, challengeID string, apply func(models.Challenge, time.Time) (models.ChallengeParticipant, error)) (models.ChallengeParticipant, error) {
	c, err := s.challengeForMember(userID, challengeID)
	if err != nil {
		return models.ChallengeParticipant{}, err
	}
	cal, err := s.calendar()
	if err != nil {
		return models.ChallengeParticipant{}, err
	}
	if status := c.StatusOn(cal.today); status != constants.ChallengeActive {
		return models.ChallengeParticipant{}, apperrors.Invalidf("challenge %q is %s", c.Title, status)
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	p, err := apply(c, at)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return models.ChallengeParticipant{}, apperrors.Forbiddenf("not participating in challenge %q", c.Title)
	}
	if err != nil {
		return models.ChallengeParticipant{}, err
	}
	if p.CompletedAt != nil && p.CompletedAt.Equal(at) {
		logger.Info("Challenge target reached", "challenge", c.ID, "user", userID)
	}
	s.publish(ctx, constants.EventChallengeProgress, c.GroupID, userID)
	return p, nil
}

func (s *Service) Leaderboard(ctx context.Context, userID, challengeID string) (LeaderboardView, error) {
	c, err := s.challengeForMember(userID, challengeID)
	if err != nil {
		return LeaderboardView{}, err
	}
	cal, err := s.calendar()
	if err != nil {
		return LeaderboardView{}, err
	}
	participants, err := s.store.GetParticipants(c.ID)
	if err != nil {
		return LeaderboardView{}, err
	}
	return LeaderboardView{
		Challenge: c,
		Status:    c.StatusOn(cal.today),
		Entries:   stats.RankParticipants(participants, c.TargetValue),
	}, nil
}

func (s *Service) ChallengeStatus(ctx context.Context, userID, challengeID string) (constants.ChallengeStatus, error) {
	c, err := s.challengeForMember(userID, challengeID)
	if err != nil {
		return "", err
	}
	cal, err := s.calendar()
	if err != nil {
		return "", err
	}
	return c.StatusOn(cal.today), nil
}

// FinalizeEndedChallenges returns the challenges whose last day was day,
// with their winners, and announces each to its group.
func (s *Service) FinalizeEndedChallenges(ctx context.Context, day string) ([]models.ChallengeResult, error) {
	if err := validation.Day("day", day); err != nil {
		return nil, err
	}
	cs, err := s.store.GetChallengesEndingOn(day)
	if err != nil {
		return nil, err
	}
	results := make([]models.ChallengeResult, 0, len(cs))
	for _, c := range cs {
		winners, err := s.winners(c)
		if err != nil {
			return nil, err
		}
		results = append(results, models.ChallengeResult{Challenge: c, Winners: winners})
		s.publish(ctx, constants.EventChallengeEnded, c.GroupID, "")
		logger.Info("Challenge ended", "challenge", c.ID, "winners", len(winners))
	}
	return results, nil
}

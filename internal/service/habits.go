package service

import (
	"context"
	"errors"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type HabitInput struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
	Description string `json:"description"`
}

// HabitPatch changes only the non-nil fields.
type HabitPatch struct {
	Title       *string `json:"title,omitempty"`
	Category    *string `json:"category,omitempty"`
	Frequency   *string `json:"frequency,omitempty"`
	Description *string `json:"description,omitempty"`
}

// HabitSummary is a habit's long-run record.
type HabitSummary struct {
	Habit          models.Habit          `json:"habit"`
	Status         constants.HabitStatus `json:"status"`
	CurrentStreak  int                   `json:"current_streak"`
	LongestStreak  int                   `json:"longest_streak"`
	Completions    int                   `json:"completions"`
	CompletionRate float64               `json:"completion_rate"` // last 30 days
	Schedule       string                `json:"schedule"`
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return constants.DefaultHabitCategory
	}
	return c
}

func (s *Service) CreateHabit(ctx context.Context, userID string, in HabitInput) (models.Habit, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.Habit{}, err
	}
	title, err := validation.HabitTitle(in.Title)
	if err != nil {
		return models.Habit{}, err
	}
	freq, err := validation.Frequency(in.Frequency)
	if err != nil {
		return models.Habit{}, err
	}
	desc, err := validation.Description(in.Description)
	if err != nil {
		return models.Habit{}, err
	}

	h := models.Habit{
		ID:          newID(),
		UserID:      userID,
		Title:       title,
		Category:    normalizeCategory(in.Category),
		Frequency:   freq,
		Description: desc,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.AddHabit(h); err != nil {
		return models.Habit{}, err
	}
	logger.Debug("Habit created", "habit", h.ID, "user", userID, "frequency", freq)
	return h, nil
}

func (s *Service) ListHabits(ctx context.Context, userID string, includeArchived bool) ([]models.Habit, error) {
	if _, err := s.requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.GetHabitsByUser(userID, includeArchived, false)
}

// ownedHabit loads a non-deleted habit and checks that userID owns it.
func (s *Service) ownedHabit(userID, habitID string) (models.Habit, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.Habit{}, err
	}
	h, err := s.store.GetHabit(habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if h.UserID != userID {
		return models.Habit{}, apperrors.Forbiddenf("habit %q belongs to another user", habitID)
	}
	return h, nil
}

func (s *Service) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	return s.ownedHabit(userID, habitID)
}

func (s *Service) UpdateHabit(ctx context.Context, userID, habitID string, patch HabitPatch) (models.Habit, error) {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return models.Habit{}, err
	}

	if patch.Title != nil {
		if h.Title, err = validation.HabitTitle(*patch.Title); err != nil {
			return models.Habit{}, err
		}
	}
	if patch.Category != nil {
		h.Category = normalizeCategory(*patch.Category)
	}
	freqChanged := false
	if patch.Frequency != nil {
		freq, err := validation.Frequency(*patch.Frequency)
		if err != nil {
			return models.Habit{}, err
		}
		freqChanged = freq != h.Frequency
		h.Frequency = freq
	}
	if patch.Description != nil {
		if h.Description, err = validation.Description(*patch.Description); err != nil {
			return models.Habit{}, err
		}
	}

	if err := s.store.UpdateHabit(h); err != nil {
		return models.Habit{}, err
	}
	if freqChanged {
		if h.Streak, err = s.refreshStreak(h); err != nil {
			return models.Habit{}, err
		}
	}
	if err := s.notifyHabitGroups(ctx, h, constants.EventGroupUpdated); err != nil {
		logger.Warn("Failed to notify groups of habit change", "habit", h.ID, "error", err)
	}
	return h, nil
}

func (s *Service) ArchiveHabit(ctx context.Context, userID, habitID string) error {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return err
	}
	if err := s.store.ArchiveHabit(habitID); err != nil {
		return err
	}
	return s.notifyHabitGroups(ctx, h, constants.EventGroupUpdated)
}

func (s *Service) UnarchiveHabit(ctx context.Context, userID, habitID string) error {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return err
	}
	if err := s.store.UnarchiveHabit(habitID); err != nil {
		return err
	}
	if _, err := s.refreshStreak(h); err != nil {
		return err
	}
	return s.notifyHabitGroups(ctx, h, constants.EventGroupUpdated)
}

// DeleteHabit soft-deletes; RestoreHabit brings it back with its logs.
func (s *Service) DeleteHabit(ctx context.Context, userID, habitID string) error {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteHabit(habitID); err != nil {
		return err
	}
	return s.notifyHabitGroups(ctx, h, constants.EventGroupUpdated)
}

func (s *Service) RestoreHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.Habit{}, err
	}
	h, err := s.store.GetHabitIncludingDeleted(habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if h.UserID != userID {
		return models.Habit{}, apperrors.Forbiddenf("habit %q belongs to another user", habitID)
	}
	if err := s.store.RestoreHabit(habitID); err != nil {
		return models.Habit{}, err
	}
	h.DeletedAt = nil
	if h.Streak, err = s.refreshStreak(h); err != nil {
		return models.Habit{}, err
	}
	return h, s.notifyHabitGroups(ctx, h, constants.EventGroupUpdated)
}

// ToggleHabitLog flips the completion of habitID on day (today when
// empty) and returns whether the day is now logged and the refreshed
// streak.
func (s *Service) ToggleHabitLog(ctx context.Context, userID, habitID, day string) (bool, int, error) {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return false, 0, err
	}
	if h.ArchivedAt != nil {
		return false, 0, apperrors.Invalidf("habit %q is archived", h.Title)
	}
	cal, err := s.calendar()
	if err != nil {
		return false, 0, err
	}
	if day, err = resolveDay(day, cal); err != nil {
		return false, 0, err
	}
	if day > cal.today {
		return false, 0, apperrors.Invalidf("cannot log %s: it is in the future", day)
	}

	logged := false
	err = s.store.DeleteHabitLog(habitID, day)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		err = s.store.AddHabitLog(models.HabitLog{
			ID:        newID(),
			HabitID:   habitID,
			Day:       day,
			CreatedAt: s.now().UTC(),
		})
		// A concurrent toggle already logged it; the result is the same.
		if err != nil && !errors.Is(err, apperrors.ErrConflict) {
			return false, 0, err
		}
		logged = true
	case err != nil:
		return false, 0, err
	}

	streak, err := s.refreshStreakAt(h, cal)
	if err != nil {
		return false, 0, err
	}
	if err := s.notifyHabitGroups(ctx, h, constants.EventHabitLog); err != nil {
		logger.Warn("Failed to notify groups of habit log", "habit", h.ID, "error", err)
	}
	logger.Debug("Habit toggled", "habit", habitID, "day", day, "logged", logged, "streak", streak)
	return logged, streak, nil
}

func (s *Service) HabitStatus(ctx context.Context, userID, habitID, day string) (constants.HabitStatus, error) {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return "", err
	}
	cal, err := s.calendar()
	if err != nil {
		return "", err
	}
	if day, err = resolveDay(day, cal); err != nil {
		return "", err
	}
	t, err := s.tracker(h, cal)
	if err != nil {
		return "", err
	}
	return t.Status(day, cal.today)
}

func (s *Service) HabitWeek(ctx context.Context, userID, habitID, day string) (models.WeekProgress, error) {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return models.WeekProgress{}, err
	}
	cal, err := s.calendar()
	if err != nil {
		return models.WeekProgress{}, err
	}
	if day, err = resolveDay(day, cal); err != nil {
		return models.WeekProgress{}, err
	}
	t, err := s.tracker(h, cal)
	if err != nil {
		return models.WeekProgress{}, err
	}
	return t.Week(day, cal.weekStart, cal.today)
}

func (s *Service) HabitSummary(ctx context.Context, userID, habitID string) (HabitSummary, error) {
	h, err := s.ownedHabit(userID, habitID)
	if err != nil {
		return HabitSummary{}, err
	}
	cal, err := s.calendar()
	if err != nil {
		return HabitSummary{}, err
	}
	t, err := s.tracker(h, cal)
	if err != nil {
		return HabitSummary{}, err
	}

	sum := HabitSummary{Habit: h, Completions: t.TotalCompletions(), Schedule: t.Frequency().Describe()}
	if sum.Status, err = t.Status(cal.today, cal.today); err != nil {
		return HabitSummary{}, err
	}
	if sum.CurrentStreak, err = t.CurrentStreak(cal.today); err != nil {
		return HabitSummary{}, err
	}
	if sum.LongestStreak, err = t.LongestStreak(cal.today); err != nil {
		return HabitSummary{}, err
	}
	from, err := utils.AddDays(cal.today, -29)
	if err != nil {
		return HabitSummary{}, err
	}
	if sum.CompletionRate, err = t.CompletionRate(from, cal.today, cal.today); err != nil {
		return HabitSummary{}, err
	}
	return sum, nil
}

// TodayOverview lists every active habit with today's status, streak and
// week progress.
func (s *Service) TodayOverview(ctx context.Context, userID string) ([]models.HabitOverview, error) {
	if _, err := s.requireUser(userID); err != nil {
		return nil, err
	}
	cal, err := s.calendar()
	if err != nil {
		return nil, err
	}
	hs, err := s.store.GetHabitsByUser(userID, false, false)
	if err != nil {
		return nil, err
	}

	overview := make([]models.HabitOverview, 0, len(hs))
	for _, h := range hs {
		t, err := s.tracker(h, cal)
		if err != nil {
			logger.Warn("Skipping habit with unreadable history", "habit", h.ID, "error", err)
			continue
		}
		status, err := t.Status(cal.today, cal.today)
		if err != nil {
			return nil, err
		}
		streak, err := t.CurrentStreak(cal.today)
		if err != nil {
			return nil, err
		}
		week, err := t.Week(cal.today, cal.weekStart, cal.today)
		if err != nil {
			return nil, err
		}
		h.Streak = streak
		overview = append(overview, models.HabitOverview{Habit: h, Status: status, Streak: streak, Week: week})
	}
	return overview, nil
}

// PendingHabits returns the user's active habits still pending today.
func (s *Service) PendingHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	overview, err := s.TodayOverview(ctx, userID)
	if err != nil {
		return nil, err
	}
	var pending []models.Habit
	for _, o := range overview {
		if o.Status == constants.StatusPending {
			pending = append(pending, o.Habit)
		}
	}
	return pending, nil
}

// RefreshStreaks recomputes the cached streak of every active habit and
// returns how many changed.
func (s *Service) RefreshStreaks(ctx context.Context) (int, error) {
	cal, err := s.calendar()
	if err != nil {
		return 0, err
	}
	hs, err := s.store.GetAllActiveHabits()
	if err != nil {
		return 0, err
	}

	changed := 0
	var errs []error
	for _, h := range hs {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		before := h.Streak
		streak, err := s.refreshStreakAt(h, cal)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if streak != before {
			changed++
		}
	}
	return changed, errors.Join(errs...)
}

func (s *Service) tracker(h models.Habit, cal calendar) (*habits.Tracker, error) {
	logs, err := s.store.GetHabitLogs(h.ID)
	if err != nil {
		return nil, err
	}
	return habits.FromHabit(h, logs, cal.loc)
}

func (s *Service) refreshStreak(h models.Habit) (int, error) {
	cal, err := s.calendar()
	if err != nil {
		return 0, err
	}
	return s.refreshStreakAt(h, cal)
}

func (s *Service) refreshStreakAt(h models.Habit, cal calendar) (int, error) {
	t, err := s.tracker(h, cal)
	if err != nil {
		return 0, err
	}
	streak, err := t.CurrentStreak(cal.today)
	if err != nil {
		return 0, err
	}
	if streak != h.Streak {
		if err := s.store.UpdateHabitStreak(h.ID, streak); err != nil {
			return 0, err
		}
	}
	return streak, nil
}

func (s *Service) notifyHabitGroups(ctx context.Context, h models.Habit, typ constants.EventType) error {
	groupIDs, err := s.store.GetHabitGroupIDs(h.ID)
	if err != nil {
		return err
	}
	for _, gid := range groupIDs {
		s.publish(ctx, typ, gid, h.UserID)
	}
	return nil
}

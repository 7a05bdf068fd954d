// Package scheduler runs the background jobs of `habitual serve`: the nightly
// streak refresh, challenge finalization and the daily pending-habit reminder.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/utils"
)

const (
	SpecRefreshStreaks     = "5 0 * * *"
	SpecFinalizeChallenges = "10 0 * * *"
	SpecReminders          = "* * * * *"
)

type Scheduler struct {
	svc    *service.Service
	notify notifier.Notifier
	cron   *cron.Cron
	now    func() time.Time
	ctx    context.Context
}

type Option func(*Scheduler)

// WithClock replaces time.Now for the reminder check.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New registers the jobs on a cron running in the configured timezone. A
// timezone change takes effect on the next start.
func New(svc *service.Service, n notifier.Notifier, opts ...Option) (*Scheduler, error) {
	settings, err := svc.Settings()
	if err != nil {
		return nil, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	if n == nil {
		n = notifier.Discard{}
	}

	s := &Scheduler{
		svc:    svc,
		notify: n,
		now:    time.Now,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"refresh-streaks", SpecRefreshStreaks, s.RefreshStreaks},
		{"finalize-challenges", SpecFinalizeChallenges, s.FinalizeChallenges},
		{"reminders", SpecReminders, s.SendReminders},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.run)); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, run func(context.Context) error) func() {
	return func() {
		if err := run(s.ctx); err != nil {
			logger.Error("Scheduled job failed", "job", name, "error", err)
		}
	}
}

// Run starts the cron and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
	return nil
}

// RefreshStreaks recomputes every habit's cached streak.
func (s *Scheduler) RefreshStreaks(ctx context.Context) error {
	n, err := s.svc.RefreshStreaks(ctx)
	logger.Debug("Refreshed streaks", "habits", n)
	return err
}

// FinalizeChallenges closes the challenges that ended yesterday and announces
// their winners.
func (s *Scheduler) FinalizeChallenges(ctx context.Context) error {
	today, err := s.svc.Today()
	if err != nil {
		return err
	}
	yesterday, err := utils.AddDays(today, -1)
	if err != nil {
		return err
	}
	results, err := s.svc.FinalizeEndedChallenges(ctx, yesterday)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := s.notify.Notify(ctx, WinnersMessage(r)); err != nil {
			logger.Warn("Failed to announce challenge winners", "challenge", r.Challenge.ID, "error", err)
		}
	}
	return nil
}

// SendReminders notifies each user of the habits still pending today, once,
// in the minute matching the reminder_time setting.
func (s *Scheduler) SendReminders(ctx context.Context) error {
	settings, err := s.svc.Settings()
	if err != nil {
		return err
	}
	if settings.ReminderTime == "" {
		return nil
	}
	at, err := utils.ParseTime(settings.ReminderTime)
	if err != nil {
		return err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return err
	}
	if s.now().In(loc).Format(constants.TimeFormat) != at.Format(constants.TimeFormat) {
		return nil
	}

	users, err := s.svc.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		pending, err := s.svc.PendingHabits(ctx, u.ID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			continue
		}
		if err := s.notify.Notify(ctx, ReminderMessage(u, pending)); err != nil {
			logger.Warn("Failed to send reminder", "user", u.Name, "error", err)
		}
	}
	return nil
}

func ReminderMessage(u models.User, pending []models.Habit) string {
	titles := make([]string, len(pending))
	for i, h := range pending {
		titles[i] = h.Title
	}
	noun := "habits"
	if len(pending) == 1 {
		noun = "habit"
	}
	return fmt.Sprintf("%s, %d %s left today: %s", u.Name, len(pending), noun, strings.Join(titles, ", "))
}

func WinnersMessage(r models.ChallengeResult) string {
	if len(r.Winners) == 0 {
		return fmt.Sprintf("Challenge %q has ended with no winner.", r.Challenge.Title)
	}
	names := make([]string, len(r.Winners))
	for i, w := range r.Winners {
		names[i] = w.UserName
		if names[i] == "" {
			names[i] = w.UserID
		}
	}
	label := "Winner"
	if len(names) > 1 {
		label = "Winners"
	}
	return fmt.Sprintf("Challenge %q has ended. %s: %s", r.Challenge.Title, label, strings.Join(names, ", "))
}

// cronLogger routes cron's own messages to the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

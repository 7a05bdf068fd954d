// Package service implements habitual's operations on top of a
// storage.Provider. Every transport (CLI, HTTP, TUI, scheduler) goes
// through it, so authorization and invariants live here.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/coach"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/realtime"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

// Re-exported so transports can classify errors without importing the
// errors package under an alias.
var (
	ErrNotFound  = apperrors.ErrNotFound
	ErrForbidden = apperrors.ErrForbidden
	ErrConflict  = apperrors.ErrConflict
	ErrInvalid   = apperrors.ErrInvalid
)

type Service struct {
	store  storage.Provider
	broker realtime.Broker
	coach  coach.Coach
	now    func() time.Time
}

type Option func(*Service)

func WithBroker(b realtime.Broker) Option {
	return func(s *Service) { s.broker = b }
}

func WithCoach(c coach.Coach) Option {
	return func(s *Service) { s.coach = c }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service over store. Without options events go to an
// in-process hub and the coach works offline.
func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:  store,
		broker: realtime.NewHub(),
		coach:  coach.Templates{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() storage.Provider {
	return s.store
}

func (s *Service) Broker() realtime.Broker {
	return s.broker
}

// calendar is the user-facing notion of "today" derived from settings.
type calendar struct {
	today     string
	loc       *time.Location
	weekStart time.Weekday
}

func (s *Service) calendar() (calendar, error) {
	settings, err := s.Settings()
	if err != nil {
		return calendar{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return calendar{}, apperrors.Invalidf("invalid timezone %q", settings.Timezone)
	}
	return calendar{
		today:     s.now().In(loc).Format(constants.DateFormat),
		loc:       loc,
		weekStart: settings.WeekStartDay(),
	}, nil
}

// Today returns the current date in the configured timezone.
func (s *Service) Today() (string, error) {
	cal, err := s.calendar()
	if err != nil {
		return "", err
	}
	return cal.today, nil
}

func (s *Service) publish(ctx context.Context, typ constants.EventType, groupID, userID string) {
	e := realtime.Event{Type: typ, GroupID: groupID, UserID: userID, At: s.now().UTC()}
	if err := s.broker.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish group event", "type", typ, "group", groupID, "error", err)
	}
}

func newID() string {
	return uuid.New().String()
}

// resolveDay defaults an empty day to today and validates the format.
func resolveDay(day string, cal calendar) (string, error) {
	if day == "" {
		return cal.today, nil
	}
	if err := validation.Day("day", day); err != nil {
		return "", err
	}
	return day, nil
}

// Settings

func (s *Service) Settings() (models.Settings, error) {
	settings, err := s.store.GetSettings()
	if errors.Is(err, apperrors.ErrNotFound) {
		settings = models.Settings{}
		models.ApplyDefaultSettings(&settings)
		return settings, nil
	}
	return settings, err
}

// UpdateSetting validates and stores one setting. default_user accepts a
// user name or ID and stores the ID.
func (s *Service) UpdateSetting(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if err := validation.Setting(key, value); err != nil {
		return err
	}
	if key == constants.SettingDefaultUser && value != "" {
		u, err := s.ResolveUser(ctx, value)
		if err != nil {
			return err
		}
		value = u.ID
	}
	return s.store.SetSetting(key, value)
}

// Users

func (s *Service) CreateUser(ctx context.Context, name, avatarURL string) (models.User, error) {
	name, err := validation.Text("name", name, constants.MaxUserNameLength)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		ID:        newID(),
		Name:      name,
		AvatarURL: strings.TrimSpace(avatarURL),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AddUser(u); err != nil {
		return models.User{}, err
	}
	logger.Info("User created", "user", u.ID, "name", u.Name)
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.GetAllUsers()
}

// ResolveUser finds a user by ID, then by name.
func (s *Service) ResolveUser(ctx context.Context, ref string) (models.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.User{}, apperrors.Invalidf("no user given")
	}
	u, err := s.store.GetUser(ref)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return models.User{}, err
	}
	return s.store.GetUserByName(ref)
}

// requireUser turns an unknown caller into ErrForbidden rather than
// ErrNotFound; an opaque identity that does not exist is not authorized.
func (s *Service) requireUser(userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, apperrors.Forbiddenf("no current user")
	}
	u, err := s.store.GetUser(userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.User{}, apperrors.Forbiddenf("unknown user %q", userID)
	}
	return u, err
}

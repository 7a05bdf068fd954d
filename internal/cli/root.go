package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

type Context struct {
	Base    context.Context
	Store   storage.Provider
	Service *service.Service
	// User is the --user flag: a user ID or name. Empty means the
	// default_user setting.
	User string
	Addr string
	// Options built Service; commands that need a differently wired
	// service (serve) start from them.
	Options []service.Option
}

// Context returns the command's base context.
func (c *Context) Context() context.Context {
	if c.Base == nil {
		return context.Background()
	}
	return c.Base
}

// CurrentUser resolves the acting user from --user or the default_user
// setting.
func (c *Context) CurrentUser() (models.User, error) {
	ref := strings.TrimSpace(c.User)
	if ref == "" {
		settings, err := c.Service.Settings()
		if err != nil {
			return models.User{}, err
		}
		ref = settings.DefaultUser
	}
	if ref == "" {
		return models.User{}, fmt.Errorf("no user selected: pass --user, set HABITUAL_USER, or run '%s user use NAME'", constants.AppName)
	}
	return c.Service.ResolveUser(c.Context(), ref)
}

// PerformAutomaticBackup snapshots a SQLite store and logs failures without
// interrupting the command.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Match picks the item ref names: an exact ID, a case-insensitive name, or
// a unique ID prefix.
func Match[T any](kind string, items []T, ref string, id, name func(T) string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, apperrors.Invalidf("%s is required", kind)
	}
	for _, it := range items {
		if id(it) == ref {
			return it, nil
		}
	}

	var byName, byPrefix []T
	for _, it := range items {
		if strings.EqualFold(name(it), ref) {
			byName = append(byName, it)
		}
		if strings.HasPrefix(id(it), ref) {
			byPrefix = append(byPrefix, it)
		}
	}
	for _, candidates := range [][]T{byName, byPrefix} {
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return candidates[0], nil
		default:
			return zero, apperrors.Invalidf("%s %q is ambiguous, use its ID", kind, ref)
		}
	}
	return zero, apperrors.NotFoundf("%s %q not found", kind, ref)
}

// FindHabit resolves a habit of userID, archived ones included.
func (c *Context) FindHabit(userID, ref string) (models.Habit, error) {
	habits, err := c.Service.ListHabits(c.Context(), userID, true)
	if err != nil {
		return models.Habit{}, err
	}
	return Match("habit", habits, ref,
		func(h models.Habit) string { return h.ID },
		func(h models.Habit) string { return h.Title })
}

// FindTask resolves a task among userID's tasks for day.
func (c *Context) FindTask(userID, day, ref string) (models.DailyTask, error) {
	tasks, err := c.Service.ListTasks(c.Context(), userID, day)
	if err != nil {
		return models.DailyTask{}, err
	}
	return Match("task", tasks, ref,
		func(t models.DailyTask) string { return t.ID },
		func(t models.DailyTask) string { return t.Title })
}

// FindGroup resolves one of userID's groups.
func (c *Context) FindGroup(userID, ref string) (models.Group, error) {
	groups, err := c.Service.ListGroups(c.Context(), userID)
	if err != nil {
		return models.Group{}, err
	}
	return Match("group", groups, ref,
		func(g models.Group) string { return g.ID },
		func(g models.Group) string { return g.Name })
}

// FindMember resolves a member of groupID by user ID or name.
func (c *Context) FindMember(userID, groupID, ref string) (models.GroupMember, error) {
	detail, err := c.Service.GetGroup(c.Context(), userID, groupID)
	if err != nil {
		return models.GroupMember{}, err
	}
	return Match("member", detail.Members, ref,
		func(m models.GroupMember) string { return m.UserID },
		func(m models.GroupMember) string { return m.UserName })
}

// FindChallenge resolves a challenge across userID's groups.
func (c *Context) FindChallenge(userID, ref string) (service.ChallengeSummary, error) {
	groups, err := c.Service.ListGroups(c.Context(), userID)
	if err != nil {
		return service.ChallengeSummary{}, err
	}
	var all []service.ChallengeSummary
	for _, g := range groups {
		cs, err := c.Service.ListChallenges(c.Context(), userID, g.ID)
		if err != nil {
			return service.ChallengeSummary{}, err
		}
		all = append(all, cs...)
	}
	return Match("challenge", all, ref,
		func(s service.ChallengeSummary) string { return s.ID },
		func(s service.ChallengeSummary) string { return s.Title })
}

// ShortID trims an ID for display; Match accepts the prefix back.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// StatusMark renders a habit status as a checkbox.
func StatusMark(s constants.HabitStatus) string {
	switch s {
	case constants.StatusCompleted:
		return "[x]"
	case constants.StatusFailed:
		return "[!]"
	case constants.StatusNotRequired:
		return "[-]"
	default:
		return "[ ]"
	}
}

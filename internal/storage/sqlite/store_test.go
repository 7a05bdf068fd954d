package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func addUser(t *testing.T, store *Store, id, name string) models.User {
	t.Helper()
	u := models.User{ID: id, Name: name, CreatedAt: time.Now()}
	if err := store.AddUser(u); err != nil {
		t.Fatalf("failed to add user %s: %v", name, err)
	}
	return u
}

func addHabit(t *testing.T, store *Store, id, userID, title string) models.Habit {
	t.Helper()
	h := models.Habit{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Category:  constants.DefaultHabitCategory,
		Frequency: constants.FrequencyDaily,
		CreatedAt: time.Now(),
	}
	if err := store.AddHabit(h); err != nil {
		t.Fatalf("failed to add habit %s: %v", title, err)
	}
	return h
}

func TestInit_DefaultSettings(t *testing.T) {
	store := setupTestStore(t)

	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.Timezone != constants.DefaultTimezone {
		t.Errorf("expected default timezone %q, got %q", constants.DefaultTimezone, settings.Timezone)
	}
	if settings.ReminderTime != constants.DefaultReminderTime {
		t.Errorf("expected default reminder time %q, got %q", constants.DefaultReminderTime, settings.ReminderTime)
	}

	if err := store.SetSetting(constants.SettingWeekStart, "sunday"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	v, err := store.GetSetting(constants.SettingWeekStart)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if v != "sunday" {
		t.Errorf("expected sunday, got %q", v)
	}

	if _, err := store.GetSetting("missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing setting, got %v", err)
	}
}

func TestInit_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "habitual.db")

	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	store.Close()

	store = NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer store.Close()

	current, latest, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if current != latest || current == 0 {
		t.Errorf("expected current == latest > 0, got current=%d latest=%d", current, latest)
	}
}

func TestLoad_RequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.db"))
	if err := store.Load(); err == nil {
		t.Fatal("expected Load to fail before Init")
	}
}

func TestLoad_AfterInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "habitual.db")
	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	store = NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer store.Close()
	if err := store.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestUsers(t *testing.T) {
	store := setupTestStore(t)
	addUser(t, store, "u1", "ada")

	if err := store.AddUser(models.User{ID: "u2", Name: "ada", CreatedAt: time.Now()}); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate name, got %v", err)
	}

	got, err := store.GetUserByName("ada")
	if err != nil {
		t.Fatalf("GetUserByName failed: %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("expected u1, got %s", got.ID)
	}

	if _, err := store.GetUser("nope"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitSoftDeleteAndArchive(t *testing.T) {
	store := setupTestStore(t)
	addUser(t, store, "u1", "ada")
	addHabit(t, store, "h1", "u1", "Read")
	addHabit(t, store, "h2", "u1", "Run")

	if err := store.ArchiveHabit("h1"); err != nil {
		t.Fatalf("ArchiveHabit failed: %v", err)
	}
	if err := store.ArchiveHabit("h1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("archiving twice should report not found, got %v", err)
	}

	active, err := store.GetHabitsByUser("u1", false, false)
	if err != nil {
		t.Fatalf("GetHabitsByUser failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "h2" {
		t.Errorf("expected only h2 active, got %+v", active)
	}

	withArchived, err := store.GetHabitsByUser("u1", true, false)
	if err != nil {
		t.Fatalf("GetHabitsByUser failed: %v", err)
	}
	if len(withArchived) != 2 {
		t.Errorf("expected 2 habits including archived, got %d", len(withArchived))
	}

	if err := store.DeleteHabit("h2"); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if _, err := store.GetHabit("h2"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected deleted habit to be hidden, got %v", err)
	}
	deleted, err := store.GetHabitIncludingDeleted("h2")
	if err != nil {
		t.Fatalf("GetHabitIncludingDeleted failed: %v", err)
	}
	if deleted.DeletedAt == nil {
		t.Error("expected DeletedAt to be set")
	}

	if err := store.RestoreHabit("h2"); err != nil {
		t.Fatalf("RestoreHabit failed: %v", err)
	}
	if _, err := store.GetHabit("h2"); err != nil {
		t.Errorf("restored habit should be visible: %v", err)
	}
}

func TestHabitLogs(t *testing.T) {
	store := setupTestStore(t)
	addUser(t, store, "u1", "ada")
	addHabit(t, store, "h1", "u1", "Read")

	for i, day := range []string{"2026-03-01", "2026-03-02", "2026-03-05"} {
		log := models.HabitLog{ID: string(rune('a' + i)), HabitID: "h1", Day: day, CreatedAt: time.Now()}
		if err := store.AddHabitLog(log); err != nil {
			t.Fatalf("AddHabitLog(%s) failed: %v", day, err)
		}
	}

	dup := models.HabitLog{ID: "dup", HabitID: "h1", Day: "2026-03-01", CreatedAt: time.Now()}
	if err := store.AddHabitLog(dup); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate day, got %v", err)
	}

	inRange, err := store.GetHabitLogsInRange("h1", "2026-03-02", "2026-03-31")
	if err != nil {
		t.Fatalf("GetHabitLogsInRange failed: %v", err)
	}
	if len(inRange) != 2 || inRange[0].Day != "2026-03-02" {
		t.Errorf("unexpected logs in range: %+v", inRange)
	}

	if err := store.DeleteHabitLog("h1", "2026-03-02"); err != nil {
		t.Fatalf("DeleteHabitLog failed: %v", err)
	}
	if err := store.DeleteHabitLog("h1", "2026-03-02"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}

	n, err := store.CountHabitLogsByUser("u1")
	if err != nil {
		t.Fatalf("CountHabitLogsByUser failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 logs, got %d", n)
	}
}

func TestTasksOrderAndReorder(t *testing.T) {
	store := setupTestStore(t)
	addUser(t, store, "u1", "ada")

	day := "2026-03-01"
	for _, id := range []string{"t1", "t2", "t3"} {
		order, err := store.NextTaskOrder("u1", day)
		if err != nil {
			t.Fatalf("NextTaskOrder failed: %v", err)
		}
		task := models.DailyTask{
			ID: id, UserID: "u1", Title: id, Priority: constants.PriorityMedium,
			Day: day, OrderIndex: order, CreatedAt: time.Now(),
		}
		if err := store.AddTask(task); err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
	}

	if err := store.ReorderTasks([]string{"t3", "t1", "t2"}); err != nil {
		t.Fatalf("ReorderTasks failed: %v", err)
	}
	tasks, err := store.GetTasksByDay("u1", day)
	if err != nil {
		t.Fatalf("GetTasksByDay failed: %v", err)
	}
	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	if len(ids) != 3 || ids[0] != "t3" || ids[1] != "t1" || ids[2] != "t2" {
		t.Errorf("unexpected order: %v", ids)
	}

	if err := store.ReorderTasks([]string{"t1", "ghost"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown task, got %v", err)
	}
	// the failed reorder must not have been applied
	first, err := store.GetTask("t1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if first.OrderIndex != 1 {
		t.Errorf("expected t1 to keep order 1 after rollback, got %d", first.OrderIndex)
	}

	now := time.Now()
	first.Completed = true
	first.CompletedAt = &now
	first.AISuggested = true
	if err := store.UpdateTask(first); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	got, err := store.GetTask("t1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if !got.Completed || got.CompletedAt == nil || !got.AISuggested {
		t.Errorf("task flags not persisted: %+v", got)
	}
}

func TestGroupsMembershipAndSharing(t *testing.T) {
	store := setupTestStore(t)
	addUser(t, store, "u1", "ada")
	addUser(t, store, "u2", "bob")
	addHabit(t, store, "h1", "u1", "Read")
	addHabit(t, store, "h2", "u2", "Run")

	now := time.Now()
	group := models.Group{ID: "g1", Name: "Club", InviteCode: "ABCD2345", CreatedBy: "u1", CreatedAt: now}
	owner := models.GroupMember{GroupID: "g1", UserID: "u1", Role: constants.RoleAdmin, JoinedAt: now}
	if err := store.AddGroup(group, owner); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}

	clash := models.Group{ID: "g2", Name: "Other", InviteCode: "ABCD2345", CreatedBy: "u2", CreatedAt: now}
	if err := store.AddGroup(clash, models.GroupMember{GroupID: "g2", UserID: "u2", Role: constants.RoleAdmin, JoinedAt: now}); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict on invite code clash, got %v", err)
	}

	byCode, err := store.GetGroupByInviteCode("ABCD2345")
	if err != nil || byCode.ID != "g1" {
		t.Fatalf("GetGroupByInviteCode = %+v, %v", byCode, err)
	}

	member := models.GroupMember{GroupID: "g1", UserID: "u2", Role: constants.RoleMember, JoinedAt: now.Add(time.Second)}
	if err := store.AddGroupMember(member); err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}
	if err := store.AddGroupMember(member); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected ErrConflict joining twice, got %v", err)
	}

	members, err := store.GetGroupMembers("g1")
	if err != nil {
		t.Fatalf("GetGroupMembers failed: %v", err)
	}
	if len(members) != 2 || members[0].UserID != "u1" || members[1].UserName != "bob" {
		t.Errorf("unexpected members: %+v", members)
	}

	if err := store.ShareHabit("g1", "h1", now); err != nil {
		t.Fatalf("ShareHabit failed: %v", err)
	}
	if err := store.ShareHabit("g1", "h2", now); err != nil {
		t.Fatalf("ShareHabit failed: %v", err)
	}
	groupIDs, err := store.GetHabitGroupIDs("h2")
	if err != nil || len(groupIDs) != 1 {
		t.Fatalf("GetHabitGroupIDs = %v, %v", groupIDs, err)
	}

	// A failed promotion leaves the leaving admin and their shares in place.
	if err := store.RemoveGroupMember("g1", "u1", "ghost"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown successor, got %v", err)
	}
	if m, err := store.GetGroupMember("g1", "u1"); err != nil || m.Role != constants.RoleAdmin {
		t.Fatalf("expected u1 to remain admin, got %+v, %v", m, err)
	}

	if err := store.RemoveGroupMember("g1", "u2", ""); err != nil {
		t.Fatalf("RemoveGroupMember failed: %v", err)
	}
	shared, err := store.GetSharedHabits("g1")
	if err != nil {
		t.Fatalf("GetSharedHabits failed: %v", err)
	}
	if len(shared) != 1 || shared[0].ID != "h1" {
		t.Errorf("leaving should withdraw the member's shares, got %+v", shared)
	}

	if err := store.DeleteGroup("g1"); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	if _, err := store.GetGroup("g1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected group to be gone, got %v", err)
	}
	groups, err := store.GetGroupsByUser("u1")
	if err != nil {
		t.Fatalf("GetGroupsByUser failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestChallengesAndParticipants(t *testing.T) {
	store := setupTestStore(t)
	addUser(t, store, "u1", "ada")
	addUser(t, store, "u2", "bob")

	now := time.Now()
	group := models.Group{ID: "g1", Name: "Club", InviteCode: "QWER2345", CreatedBy: "u1", CreatedAt: now}
	if err := store.AddGroup(group, models.GroupMember{GroupID: "g1", UserID: "u1", Role: constants.RoleAdmin, JoinedAt: now}); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}

	c := models.Challenge{
		ID: "c1", GroupID: "g1", Title: "Run 50k", TargetValue: 50, Unit: "km",
		StartDay: "2026-03-01", EndDay: "2026-03-31", CreatedBy: "u1", CreatedAt: now,
	}
	if err := store.AddChallenge(c); err != nil {
		t.Fatalf("AddChallenge failed: %v", err)
	}

	bad := c
	bad.ID = "c2"
	bad.EndDay = "2026-02-01"
	if err := store.AddChallenge(bad); err == nil {
		t.Error("expected CHECK constraint to reject end before start")
	}

	for i, uid := range []string{"u1", "u2"} {
		p := models.ChallengeParticipant{ChallengeID: "c1", UserID: uid, JoinedAt: now.Add(time.Duration(i) * time.Second)}
		if err := store.AddParticipant(p); err != nil {
			t.Fatalf("AddParticipant failed: %v", err)
		}
	}

	p, err := store.AddParticipantProgress("c1", "u2", 30, 50, now)
	if err != nil {
		t.Fatalf("AddParticipantProgress failed: %v", err)
	}
	if p.Progress != 30 || p.CompletedAt != nil || p.UserName != "bob" {
		t.Errorf("unexpected participant after add: %+v", p)
	}
	if _, err := store.AddParticipantProgress("c1", "u2", -31, 50, now); !errors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("expected ErrInvalid below zero, got %v", err)
	}
	if _, err := store.AddParticipantProgress("c1", "nobody", 1, 50, now); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for non-participant, got %v", err)
	}
	if p, err = store.AddParticipantProgress("c1", "u2", 20, 50, now); err != nil || p.CompletedAt == nil {
		t.Fatalf("expected completion at target, got %+v, %v", p, err)
	}
	first := *p.CompletedAt
	later := now.Add(time.Hour)
	if p, err = store.SetParticipantProgress("c1", "u2", 10, 50, later); err != nil {
		t.Fatalf("SetParticipantProgress failed: %v", err)
	}
	if p, err = store.SetParticipantProgress("c1", "u2", 50, 50, later); err != nil {
		t.Fatalf("SetParticipantProgress failed: %v", err)
	}
	if p.CompletedAt == nil || !p.CompletedAt.Equal(first) {
		t.Errorf("completed_at moved from %v to %v", first, p.CompletedAt)
	}

	participants, err := store.GetParticipants("c1")
	if err != nil {
		t.Fatalf("GetParticipants failed: %v", err)
	}
	if len(participants) != 2 || participants[1].Progress != 50 || participants[1].CompletedAt == nil {
		t.Errorf("unexpected participants: %+v", participants)
	}

	ending, err := store.GetChallengesEndingOn("2026-03-31")
	if err != nil || len(ending) != 1 {
		t.Fatalf("GetChallengesEndingOn = %v, %v", ending, err)
	}

	ended, err := store.GetEndedChallengesForUser("u2", "2026-04-01")
	if err != nil || len(ended) != 1 {
		t.Fatalf("GetEndedChallengesForUser = %v, %v", ended, err)
	}
	ended, err = store.GetEndedChallengesForUser("u2", "2026-03-31")
	if err != nil || len(ended) != 0 {
		t.Fatalf("challenge should not count as ended on its last day: %v, %v", ended, err)
	}
}

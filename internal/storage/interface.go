package storage

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping() error
	GetConfigPath() string

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error

	// Users
	AddUser(models.User) error
	GetUser(id string) (models.User, error)
	GetUserByName(name string) (models.User, error)
	GetAllUsers() ([]models.User, error)
	UpdateUser(models.User) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitIncludingDeleted(id string) (models.Habit, error)
	GetHabitsByUser(userID string, includeArchived, includeDeleted bool) ([]models.Habit, error)
	GetAllActiveHabits() ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	UpdateHabitStreak(id string, streak int) error
	ArchiveHabit(id string) error
	UnarchiveHabit(id string) error
	DeleteHabit(id string) error
	RestoreHabit(id string) error

	// Habit logs
	AddHabitLog(models.HabitLog) error
	GetHabitLog(habitID, day string) (models.HabitLog, error)
	DeleteHabitLog(habitID, day string) error
	GetHabitLogs(habitID string) ([]models.HabitLog, error)
	GetHabitLogsInRange(habitID, from, to string) ([]models.HabitLog, error)
	CountHabitLogsByUser(userID string) (int, error)

	// Daily tasks
	AddTask(models.DailyTask) error
	GetTask(id string) (models.DailyTask, error)
	GetTasksByDay(userID, day string) ([]models.DailyTask, error)
	NextTaskOrder(userID, day string) (int, error)
	UpdateTask(models.DailyTask) error
	ReorderTasks(ids []string) error
	DeleteTask(id string) error

	// Groups
	AddGroup(group models.Group, owner models.GroupMember) error
	GetGroup(id string) (models.Group, error)
	GetGroupByInviteCode(code string) (models.Group, error)
	GetGroupsByUser(userID string) ([]models.Group, error)
	UpdateGroup(models.Group) error
	DeleteGroup(id string) error
	AddGroupMember(models.GroupMember) error
	GetGroupMember(groupID, userID string) (models.GroupMember, error)
	GetGroupMembers(groupID string) ([]models.GroupMember, error)
	UpdateGroupMemberRole(groupID, userID string, role constants.MemberRole) error
	RemoveGroupMember(groupID, userID, successorID string) error
	ShareHabit(groupID, habitID string, at time.Time) error
	UnshareHabit(groupID, habitID string) error
	GetSharedHabits(groupID string) ([]models.Habit, error)
	GetHabitGroupIDs(habitID string) ([]string, error)

	// Challenges
	AddChallenge(models.Challenge) error
	GetChallenge(id string) (models.Challenge, error)
	GetChallengesByGroup(groupID string) ([]models.Challenge, error)
	GetChallengesEndingOn(day string) ([]models.Challenge, error)
	GetEndedChallengesForUser(userID, today string) ([]models.Challenge, error)
	DeleteChallenge(id string) error
	AddParticipant(models.ChallengeParticipant) error
	GetParticipant(challengeID, userID string) (models.ChallengeParticipant, error)
	GetParticipants(challengeID string) ([]models.ChallengeParticipant, error)
	AddParticipantProgress(challengeID, userID string, delta, target int, at time.Time) (models.ChallengeParticipant, error)
	SetParticipantProgress(challengeID, userID string, value, target int, at time.Time) (models.ChallengeParticipant, error)
}

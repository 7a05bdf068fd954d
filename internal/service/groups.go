package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/validation"
)

type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

type GroupPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// GroupDetail is a group as seen by one of its members.
type GroupDetail struct {
	Group   models.Group         `json:"group"`
	Members []models.GroupMember `json:"members"`
	Shared  []models.Habit       `json:"shared_habits"`
}

func generateInviteCode() (string, error) {
	alphabet := constants.InviteCodeAlphabet
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	for range constants.InviteCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// member checks that userID belongs to groupID.
func (s *Service) member(userID, groupID string) (models.GroupMember, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.GroupMember{}, err
	}
	if _, err := s.store.GetGroup(groupID); err != nil {
		return models.GroupMember{}, err
	}
	m, err := s.store.GetGroupMember(groupID, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.GroupMember{}, apperrors.Forbiddenf("not a member of group %q", groupID)
	}
	return m, err
}

func (s *Service) admin(userID, groupID string) (models.GroupMember, error) {
	m, err := s.member(userID, groupID)
	if err != nil {
		return models.GroupMember{}, err
	}
	if !m.IsAdmin() {
		return models.GroupMember{}, apperrors.Forbiddenf("only admins can manage group %q", groupID)
	}
	return m, nil
}

// CreateGroup makes userID the admin of a new group with a fresh invite code.
func (s *Service) CreateGroup(ctx context.Context, userID string, in GroupInput) (models.Group, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.Group{}, err
	}
	name, err := validation.GroupName(in.Name)
	if err != nil {
		return models.Group{}, err
	}
	desc, err := validation.Description(in.Description)
	if err != nil {
		return models.Group{}, err
	}

	now := s.now().UTC()
	g := models.Group{
		ID:          newID(),
		Name:        name,
		Description: desc,
		AvatarURL:   strings.TrimSpace(in.AvatarURL),
		CreatedBy:   userID,
		CreatedAt:   now,
	}
	owner := models.GroupMember{GroupID: g.ID, UserID: userID, Role: constants.RoleAdmin, JoinedAt: now}

	for attempt := 1; ; attempt++ {
		if g.InviteCode, err = generateInviteCode(); err != nil {
			return models.Group{}, err
		}
		err = s.store.AddGroup(g, owner)
		if !errors.Is(err, apperrors.ErrConflict) || attempt == constants.InviteCodeMaxTries {
			break
		}
		logger.Debug("Invite code collision, retrying", "attempt", attempt)
	}
	if err != nil {
		return models.Group{}, err
	}
	logger.Info("Group created", "group", g.ID, "owner", userID)
	return g, nil
}

func (s *Service) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	if _, err := s.requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.GetGroupsByUser(userID)
}

func (s *Service) GetGroup(ctx context.Context, userID, groupID string) (GroupDetail, error) {
	if _, err := s.member(userID, groupID); err != nil {
		return GroupDetail{}, err
	}
	g, err := s.store.GetGroup(groupID)
	if err != nil {
		return GroupDetail{}, err
	}
	members, err := s.store.GetGroupMembers(groupID)
	if err != nil {
		return GroupDetail{}, err
	}
	shared, err := s.store.GetSharedHabits(groupID)
	if err != nil {
		return GroupDetail{}, err
	}
	return GroupDetail{Group: g, Members: members, Shared: shared}, nil
}

func (s *Service) UpdateGroup(ctx context.Context, userID, groupID string, patch GroupPatch) (models.Group, error) {
	if _, err := s.admin(userID, groupID); err != nil {
		return models.Group{}, err
	}
	g, err := s.store.GetGroup(groupID)
	if err != nil {
		return models.Group{}, err
	}
	if patch.Name != nil {
		if g.Name, err = validation.GroupName(*patch.Name); err != nil {
			return models.Group{}, err
		}
	}
	if patch.Description != nil {
		if g.Description, err = validation.Description(*patch.Description); err != nil {
			return models.Group{}, err
		}
	}
	if patch.AvatarURL != nil {
		g.AvatarURL = strings.TrimSpace(*patch.AvatarURL)
	}
	if err := s.store.UpdateGroup(g); err != nil {
		return models.Group{}, err
	}
	s.publish(ctx, constants.EventGroupUpdated, groupID, userID)
	return g, nil
}

// JoinGroup adds userID to the group owning code. Codes are case-insensitive.
func (s *Service) JoinGroup(ctx context.Context, userID, code string) (models.Group, error) {
	if _, err := s.requireUser(userID); err != nil {
		return models.Group{}, err
	}
	code, err := validation.InviteCode(code)
	if err != nil {
		return models.Group{}, err
	}
	g, err := s.store.GetGroupByInviteCode(code)
	if err != nil {
		return models.Group{}, err
	}
	m := models.GroupMember{GroupID: g.ID, UserID: userID, Role: constants.RoleMember, JoinedAt: s.now().UTC()}
	if err := s.store.AddGroupMember(m); err != nil {
		return models.Group{}, err
	}
	s.publish(ctx, constants.EventMemberJoined, g.ID, userID)
	return g, nil
}

// LeaveGroup removes userID from the group and withdraws their shared
// habits. The last member leaving deletes the group; the last admin
// leaving promotes the earliest-joined remaining member.
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	m, err := s.member(userID, groupID)
	if err != nil {
		return err
	}
	return s.removeMember(ctx, m)
}

func (s *Service) removeMember(ctx context.Context, m models.GroupMember) error {
	members, err := s.store.GetGroupMembers(m.GroupID)
	if err != nil {
		return err
	}
	if len(members) == 1 {
		if err := s.store.DeleteGroup(m.GroupID); err != nil {
			return err
		}
		logger.Info("Last member left, group deleted", "group", m.GroupID)
		s.publish(ctx, constants.EventGroupUpdated, m.GroupID, m.UserID)
		return nil
	}

	successor := ""
	if m.IsAdmin() && countAdmins(members) == 1 {
		// members is ordered by joined_at.
		for _, other := range members {
			if other.UserID != m.UserID {
				successor = other.UserID
				break
			}
		}
	}
	if err := s.store.RemoveGroupMember(m.GroupID, m.UserID, successor); err != nil {
		return err
	}
	if successor != "" {
		logger.Info("Promoted member to admin", "group", m.GroupID, "user", successor)
	}
	s.publish(ctx, constants.EventMemberLeft, m.GroupID, m.UserID)
	return nil
}

func countAdmins(members []models.GroupMember) int {
	n := 0
	for _, m := range members {
		if m.IsAdmin() {
			n++
		}
	}
	return n
}

func (s *Service) SetMemberRole(ctx context.Context, userID, groupID, targetID, role string) error {
	if _, err := s.admin(userID, groupID); err != nil {
		return err
	}
	r, err := validation.Role(role)
	if err != nil {
		return err
	}
	target, err := s.store.GetGroupMember(groupID, targetID)
	if err != nil {
		return err
	}
	if target.Role == r {
		return nil
	}
	if target.IsAdmin() && r == constants.RoleMember {
		members, err := s.store.GetGroupMembers(groupID)
		if err != nil {
			return err
		}
		if countAdmins(members) == 1 {
			return apperrors.Conflictf("cannot demote the last admin of group %q", groupID)
		}
	}
	if err := s.store.UpdateGroupMemberRole(groupID, targetID, r); err != nil {
		return err
	}
	s.publish(ctx, constants.EventGroupUpdated, groupID, targetID)
	return nil
}

// RemoveMember kicks targetID out of the group. Admins leave with LeaveGroup.
func (s *Service) RemoveMember(ctx context.Context, userID, groupID, targetID string) error {
	if _, err := s.admin(userID, groupID); err != nil {
		return err
	}
	if targetID == userID {
		return apperrors.Invalidf("use leave to remove yourself from a group")
	}
	target, err := s.store.GetGroupMember(groupID, targetID)
	if err != nil {
		return err
	}
	return s.removeMember(ctx, target)
}

func (s *Service) RegenerateInviteCode(ctx context.Context, userID, groupID string) (models.Group, error) {
	if _, err := s.admin(userID, groupID); err != nil {
		return models.Group{}, err
	}
	g, err := s.store.GetGroup(groupID)
	if err != nil {
		return models.Group{}, err
	}
	for attempt := 1; ; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return models.Group{}, err
		}
		_, err = s.store.GetGroupByInviteCode(code)
		if errors.Is(err, apperrors.ErrNotFound) {
			g.InviteCode = code
			break
		}
		if err != nil {
			return models.Group{}, err
		}
		if attempt == constants.InviteCodeMaxTries {
			return models.Group{}, apperrors.Conflictf("could not generate a unique invite code")
		}
	}
	if err := s.store.UpdateGroup(g); err != nil {
		return models.Group{}, err
	}
	s.publish(ctx, constants.EventGroupUpdated, groupID, userID)
	return g, nil
}

func (s *Service) DeleteGroup(ctx context.Context, userID, groupID string) error {
	if _, err := s.admin(userID, groupID); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(groupID); err != nil {
		return err
	}
	s.publish(ctx, constants.EventGroupUpdated, groupID, userID)
	return nil
}

// ShareHabit makes one of userID's habits visible to a group they belong to.
func (s *Service) ShareHabit(ctx context.Context, userID, groupID, habitID string) error {
	if _, err := s.member(userID, groupID); err != nil {
		return err
	}
	if _, err := s.ownedHabit(userID, habitID); err != nil {
		return err
	}
	if err := s.store.ShareHabit(groupID, habitID, s.now().UTC()); err != nil {
		return err
	}
	s.publish(ctx, constants.EventGroupUpdated, groupID, userID)
	return nil
}

func (s *Service) UnshareHabit(ctx context.Context, userID, groupID, habitID string) error {
	if _, err := s.member(userID, groupID); err != nil {
		return err
	}
	if _, err := s.ownedHabit(userID, habitID); err != nil {
		return err
	}
	if err := s.store.UnshareHabit(groupID, habitID); err != nil {
		return err
	}
	s.publish(ctx, constants.EventGroupUpdated, groupID, userID)
	return nil
}

// GroupProgress reports, per member, the status of each habit they share
// with the group on day.
func (s *Service) GroupProgress(ctx context.Context, userID, groupID, day string) ([]models.MemberProgress, error) {
	if _, err := s.member(userID, groupID); err != nil {
		return nil, err
	}
	cal, err := s.calendar()
	if err != nil {
		return nil, err
	}
	if day, err = resolveDay(day, cal); err != nil {
		return nil, err
	}
	members, err := s.store.GetGroupMembers(groupID)
	if err != nil {
		return nil, err
	}
	shared, err := s.store.GetSharedHabits(groupID)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[string][]models.Habit)
	for _, h := range shared {
		if h.ArchivedAt != nil {
			continue
		}
		byOwner[h.UserID] = append(byOwner[h.UserID], h)
	}

	progress := make([]models.MemberProgress, 0, len(members))
	for _, m := range members {
		mp := models.MemberProgress{UserID: m.UserID, UserName: m.UserName, Habits: []models.SharedHabitStatus{}}
		for _, h := range byOwner[m.UserID] {
			t, err := s.tracker(h, cal)
			if err != nil {
				return nil, err
			}
			status, err := t.Status(day, cal.today)
			if err != nil {
				return nil, err
			}
			streak, err := t.CurrentStreak(cal.today)
			if err != nil {
				return nil, err
			}
			mp.Habits = append(mp.Habits, models.SharedHabitStatus{
				HabitID: h.ID,
				Title:   h.Title,
				Status:  status,
				Streak:  streak,
			})
			if status == constants.StatusCompleted {
				mp.Completed++
			}
		}
		mp.Total = len(mp.Habits)
		progress = append(progress, mp)
	}
	return progress, nil
}

// GroupStats returns every member's stats, best commitment score first.
func (s *Service) GroupStats(ctx context.Context, userID, groupID string) ([]models.MemberStats, error) {
	if _, err := s.member(userID, groupID); err != nil {
		return nil, err
	}
	members, err := s.store.GetGroupMembers(groupID)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendar()
	if err != nil {
		return nil, err
	}
	out := make([]models.MemberStats, 0, len(members))
	for _, m := range members {
		ms, err := s.memberStats(m.UserID, m.UserName, cal)
		if err != nil {
			return nil, err
		}
		out = append(out, ms)
	}
	stats.SortMemberStats(out)
	return out, nil
}

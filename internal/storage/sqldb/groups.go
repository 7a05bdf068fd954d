package sqldb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const groupColumns = "id, name, description, avatar_url, invite_code, created_by, created_at"

func scanGroup(row scanner) (models.Group, error) {
	var g models.Group
	var createdAt string
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.AvatarURL, &g.InviteCode, &g.CreatedBy, &createdAt); err != nil {
		return models.Group{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	g.CreatedAt = t
	return g, nil
}

// AddGroup inserts a group together with its first (admin) member. An
// invite code collision is reported as a conflict so callers can retry.
func (s *Store) AddGroup(group models.Group, owner models.GroupMember) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := s.txExec(tx, `INSERT INTO social_groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`,
			group.ID, group.Name, group.Description, group.AvatarURL, group.InviteCode, group.CreatedBy, formatTime(group.CreatedAt))
		if err != nil {
			return err
		}
		if err := requireRow(res, apperrors.Conflictf("invite code %s already in use", group.InviteCode)); err != nil {
			return err
		}
		_, err = s.txExec(tx, "INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
			group.ID, owner.UserID, string(owner.Role), formatTime(owner.JoinedAt))
		return err
	})
}

func (s *Store) GetGroup(id string) (models.Group, error) {
	g, err := scanGroup(s.queryRow("SELECT "+groupColumns+" FROM social_groups WHERE id = ?", id))
	if err != nil {
		return models.Group{}, mapNoRows(err, "group", id)
	}
	return g, nil
}

func (s *Store) GetGroupByInviteCode(code string) (models.Group, error) {
	g, err := scanGroup(s.queryRow("SELECT "+groupColumns+" FROM social_groups WHERE invite_code = ?", code))
	if err != nil {
		return models.Group{}, mapNoRows(err, "invite code", code)
	}
	return g, nil
}

func (s *Store) GetGroupsByUser(userID string) ([]models.Group, error) {
	rows, err := s.query(`SELECT g.id, g.name, g.description, g.avatar_url, g.invite_code, g.created_by, g.created_at
FROM social_groups g
JOIN group_members m ON m.group_id = g.id
WHERE m.user_id = ?
ORDER BY g.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) UpdateGroup(group models.Group) error {
	res, err := s.exec(`UPDATE social_groups SET name = ?, description = ?, avatar_url = ?, invite_code = ?
WHERE id = ?`, group.Name, group.Description, group.AvatarURL, group.InviteCode, group.ID)
	if err != nil {
		return err
	}
	return requireRow(res, apperrors.NotFoundf("group %q", group.ID))
}

// DeleteGroup removes a group and everything hanging off it.
func (s *Store) DeleteGroup(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM challenge_participants WHERE challenge_id IN (SELECT id FROM challenges WHERE group_id = ?)",
			"DELETE FROM challenges WHERE group_id = ?",
			"DELETE FROM group_habits WHERE group_id = ?",
			"DELETE FROM group_members WHERE group_id = ?",
		}
		for _, stmt := range stmts {
			if _, err := s.txExec(tx, stmt, id); err != nil {
				return err
			}
		}
		res, err := s.txExec(tx, "DELETE FROM social_groups WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireRow(res, apperrors.NotFoundf("group %q", id))
	})
}

const memberSelect = `SELECT m.group_id, m.user_id, u.name, m.role, m.joined_at
FROM group_members m
JOIN users u ON u.id = m.user_id`

func scanMember(row scanner) (models.GroupMember, error) {
	var m models.GroupMember
	var role, joinedAt string
	if err := row.Scan(&m.GroupID, &m.UserID, &m.UserName, &role, &joinedAt); err != nil {
		return models.GroupMember{}, err
	}
	m.Role = constants.MemberRole(role)
	t, err := parseTime(joinedAt)
	if err != nil {
		return models.GroupMember{}, fmt.Errorf("failed to parse joined_at: %w", err)
	}
	m.JoinedAt = t
	return m, nil
}

func (s *Store) AddGroupMember(member models.GroupMember) error {
	res, err := s.exec(`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)
ON CONFLICT DO NOTHING`, member.GroupID, member.UserID, string(member.Role), formatTime(member.JoinedAt))
	if err != nil {
		return err
	}
	return requireRow(res, apperrors.Conflictf("already a member of group %q", member.GroupID))
}

func (s *Store) GetGroupMember(groupID, userID string) (models.GroupMember, error) {
	m, err := scanMember(s.queryRow(memberSelect+" WHERE m.group_id = ? AND m.user_id = ?", groupID, userID))
	if err != nil {
		return models.GroupMember{}, mapNoRows(err, "group member", userID)
	}
	return m, nil
}

// GetGroupMembers returns members ordered by join time, earliest first.
func (s *Store) GetGroupMembers(groupID string) ([]models.GroupMember, error) {
	rows, err := s.query(memberSelect+" WHERE m.group_id = ? ORDER BY m.joined_at, u.name", groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) UpdateGroupMemberRole(groupID, userID string, role constants.MemberRole) error {
	return s.execOne(apperrors.NotFoundf("group member %q", userID),
		"UPDATE group_members SET role = ? WHERE group_id = ? AND user_id = ?", string(role), groupID, userID)
}

// RemoveGroupMember drops the membership and withdraws the member's
// habits from the group. A non-empty successorID is promoted to admin in
// the same transaction; if that fails nothing is removed.
func (s *Store) RemoveGroupMember(groupID, userID, successorID string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := s.txExec(tx, `DELETE FROM group_habits
WHERE group_id = ? AND habit_id IN (SELECT id FROM habits WHERE user_id = ?)`, groupID, userID); err != nil {
			return err
		}
		res, err := s.txExec(tx, "DELETE FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID)
		if err != nil {
			return err
		}
		if err := requireRow(res, apperrors.NotFoundf("group member %q", userID)); err != nil {
			return err
		}
		if successorID == "" {
			return nil
		}
		res, err = s.txExec(tx, "UPDATE group_members SET role = ? WHERE group_id = ? AND user_id = ?",
			string(constants.RoleAdmin), groupID, successorID)
		if err != nil {
			return err
		}
		return requireRow(res, apperrors.NotFoundf("group member %q", successorID))
	})
}

func (s *Store) ShareHabit(groupID, habitID string, at time.Time) error {
	res, err := s.exec(`INSERT INTO group_habits (group_id, habit_id, shared_at) VALUES (?, ?, ?)
ON CONFLICT DO NOTHING`, groupID, habitID, formatTime(at))
	if err != nil {
		return err
	}
	return requireRow(res, apperrors.Conflictf("habit %q already shared with group %q", habitID, groupID))
}

func (s *Store) UnshareHabit(groupID, habitID string) error {
	return s.execOne(apperrors.NotFoundf("habit %q is not shared with group %q", habitID, groupID),
		"DELETE FROM group_habits WHERE group_id = ? AND habit_id = ?", groupID, habitID)
}

// GetSharedHabits returns the active habits shared with a group.
func (s *Store) GetSharedHabits(groupID string) ([]models.Habit, error) {
	return s.collectHabits(`SELECT h.id, h.user_id, h.title, h.category, h.frequency, h.description, h.streak,
       h.created_at, h.archived_at, h.deleted_at
FROM habits h
JOIN group_habits gh ON gh.habit_id = h.id
WHERE gh.group_id = ? AND h.deleted_at IS NULL AND h.archived_at IS NULL
ORDER BY h.title`, groupID)
}

// GetHabitGroupIDs returns the groups a habit is shared with.
func (s *Store) GetHabitGroupIDs(habitID string) ([]string, error) {
	rows, err := s.query("SELECT group_id FROM group_habits WHERE habit_id = ? ORDER BY group_id", habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

package sqldb

import (
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const challengeColumns = "id, group_id, title, description, target_value, unit, start_day, end_day, created_by, created_at"

func scanChallenge(row scanner) (models.Challenge, error) {
	var c models.Challenge
	var createdAt string
	err := row.Scan(&c.ID, &c.GroupID, &c.Title, &c.Description, &c.TargetValue, &c.Unit,
		&c.StartDay, &c.EndDay, &c.CreatedBy, &createdAt)
	if err != nil {
		return models.Challenge{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Challenge{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return c, nil
}

func (s *Store) collectChallenges(query string, args ...any) ([]models.Challenge, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (s *Store) AddChallenge(c models.Challenge) error {
	_, err := s.exec(`INSERT INTO challenges (`+challengeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GroupID, c.Title, c.Description, c.TargetValue, c.Unit, c.StartDay, c.EndDay, c.CreatedBy,
		formatTime(c.CreatedAt))
	return err
}

func (s *Store) GetChallenge(id string) (models.Challenge, error) {
	c, err := scanChallenge(s.queryRow("SELECT "+challengeColumns+" FROM challenges WHERE id = ?", id))
	if err != nil {
		return models.Challenge{}, mapNoRows(err, "challenge", id)
	}
	return c, nil
}

func (s *Store) GetChallengesByGroup(groupID string) ([]models.Challenge, error) {
	return s.collectChallenges("SELECT "+challengeColumns+" FROM challenges WHERE group_id = ? ORDER BY start_day DESC, title", groupID)
}

func (s *Store) GetChallengesEndingOn(day string) ([]models.Challenge, error) {
	return s.collectChallenges("SELECT "+challengeColumns+" FROM challenges WHERE end_day = ? ORDER BY group_id, title", day)
}

// GetEndedChallengesForUser returns challenges the user took part in whose
// end day is before today.
func (s *Store) GetEndedChallengesForUser(userID, today string) ([]models.Challenge, error) {
	return s.collectChallenges(`SELECT c.id, c.group_id, c.title, c.description, c.target_value, c.unit,
       c.start_day, c.end_day, c.created_by, c.created_at
FROM challenges c
JOIN challenge_participants p ON p.challenge_id = c.id
WHERE p.user_id = ? AND c.end_day < ?
ORDER BY c.end_day`, userID, today)
}

func (s *Store) DeleteChallenge(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := s.txExec(tx, "DELETE FROM challenge_participants WHERE challenge_id = ?", id); err != nil {
			return err
		}
		res, err := s.txExec(tx, "DELETE FROM challenges WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireRow(res, apperrors.NotFoundf("challenge %q", id))
	})
}

const participantSelect = `SELECT p.challenge_id, p.user_id, u.name, p.progress, p.joined_at, p.completed_at
FROM challenge_participants p
JOIN users u ON u.id = p.user_id`

func scanParticipant(row scanner) (models.ChallengeParticipant, error) {
	var p models.ChallengeParticipant
	var joinedAt string
	var completedAt sql.NullString
	err := row.Scan(&p.ChallengeID, &p.UserID, &p.UserName, &p.Progress, &joinedAt, &completedAt)
	if err != nil {
		return models.ChallengeParticipant{}, err
	}
	if p.JoinedAt, err = parseTime(joinedAt); err != nil {
		return models.ChallengeParticipant{}, fmt.Errorf("failed to parse joined_at: %w", err)
	}
	if p.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return models.ChallengeParticipant{}, fmt.Errorf("failed to parse completed_at: %w", err)
	}
	return p, nil
}

func (s *Store) AddParticipant(p models.ChallengeParticipant) error {
	res, err := s.exec(`INSERT INTO challenge_participants (challenge_id, user_id, progress, joined_at, completed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`, p.ChallengeID, p.UserID, p.Progress, formatTime(p.JoinedAt), formatTimePtr(p.CompletedAt))
	if err != nil {
		return err
	}
	return requireRow(res, apperrors.Conflictf("already participating in challenge %q", p.ChallengeID))
}

func (s *Store) GetParticipant(challengeID, userID string) (models.ChallengeParticipant, error) {
	p, err := scanParticipant(s.queryRow(participantSelect+" WHERE p.challenge_id = ? AND p.user_id = ?", challengeID, userID))
	if err != nil {
		return models.ChallengeParticipant{}, mapNoRows(err, "participant", userID)
	}
	return p, nil
}

func (s *Store) GetParticipants(challengeID string) ([]models.ChallengeParticipant, error) {
	rows, err := s.query(participantSelect+" WHERE p.challenge_id = ? ORDER BY p.joined_at", challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.ChallengeParticipant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// AddParticipantProgress adds delta to a participant's progress in a single
// statement, stamping completed_at with at the first time progress reaches
// target. A result below zero is rejected and leaves the row untouched.
func (s *Store) AddParticipantProgress(challengeID, userID string, delta, target int, at time.Time) (models.ChallengeParticipant, error) {
	return s.applyProgress(challengeID, userID, `UPDATE challenge_participants
SET progress = progress + CAST(? AS INTEGER),
    completed_at = COALESCE(completed_at, CASE WHEN progress + CAST(? AS INTEGER) >= CAST(? AS INTEGER) THEN ? END)
WHERE challenge_id = ? AND user_id = ? AND progress + CAST(? AS INTEGER) >= 0`,
		delta, delta, target, formatTime(at), challengeID, userID, delta)
}

// SetParticipantProgress overwrites a participant's progress with value,
// following the same completion rule as AddParticipantProgress.
func (s *Store) SetParticipantProgress(challengeID, userID string, value, target int, at time.Time) (models.ChallengeParticipant, error) {
	if value < 0 {
		return models.ChallengeParticipant{}, apperrors.Invalidf("progress cannot be negative, got %d", value)
	}
	return s.applyProgress(challengeID, userID, `UPDATE challenge_participants
SET progress = CAST(? AS INTEGER),
    completed_at = COALESCE(completed_at, CASE WHEN CAST(? AS INTEGER) >= CAST(? AS INTEGER) THEN ? END)
WHERE challenge_id = ? AND user_id = ?`,
		value, value, target, formatTime(at), challengeID, userID)
}

// applyProgress runs update and reads the row back in the same transaction.
// The update goes first so SQLite takes the write lock up front.
func (s *Store) applyProgress(challengeID, userID, update string, args ...any) (models.ChallengeParticipant, error) {
	var p models.ChallengeParticipant
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := s.txExec(tx, update, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		row := tx.QueryRow(s.rebind(participantSelect+" WHERE p.challenge_id = ? AND p.user_id = ?"), challengeID, userID)
		p, err = scanParticipant(row)
		if err != nil {
			return mapNoRows(err, "participant", userID)
		}
		if n == 0 {
			return apperrors.Invalidf("progress cannot go below zero, currently %d", p.Progress)
		}
		return nil
	})
	if err != nil {
		return models.ChallengeParticipant{}, err
	}
	return p, nil
}

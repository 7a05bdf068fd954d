package sqldb

import (
	"fmt"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const userColumns = "id, name, avatar_url, created_at"

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Name, &u.AvatarURL, &createdAt); err != nil {
		return models.User{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	u.CreatedAt = t
	return u, nil
}

func (s *Store) AddUser(user models.User) error {
	res, err := s.exec(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)
ON CONFLICT DO NOTHING`, user.ID, user.Name, user.AvatarURL, formatTime(user.CreatedAt))
	if err != nil {
		return err
	}
	return requireRow(res, apperrors.Conflictf("user %q already exists", user.Name))
}

func (s *Store) GetUser(id string) (models.User, error) {
	u, err := scanUser(s.queryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return models.User{}, mapNoRows(err, "user", id)
	}
	return u, nil
}

func (s *Store) GetUserByName(name string) (models.User, error) {
	u, err := scanUser(s.queryRow("SELECT "+userColumns+" FROM users WHERE name = ?", name))
	if err != nil {
		return models.User{}, mapNoRows(err, "user", name)
	}
	return u, nil
}

func (s *Store) GetAllUsers() ([]models.User, error) {
	rows, err := s.query("SELECT " + userColumns + " FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(user models.User) error {
	return s.execOne(apperrors.NotFoundf("user %q", user.ID),
		"UPDATE users SET name = ?, avatar_url = ? WHERE id = ?", user.Name, user.AvatarURL, user.ID)
}

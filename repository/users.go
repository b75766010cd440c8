package repository

import (
	"database/sql"
	"errors"

	"github.com/stackarena/stackarena-backend/models"
)

var ErrUserNotFound = errors.New("user not found")

// LoadUser fetches a user by username, including the password hash.
func LoadUser(username string) (*models.User, error) {
	var user models.User
	err := PostgreSQLDB.QueryRow("SELECT id, username, password FROM users WHERE username = $1", username).
		Scan(&user.ID, &user.Username, &user.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// LoadUserByID fetches a user by primary key, without the password hash.
func LoadUserByID(id uint) (*models.User, error) {
	var user models.User
	err := PostgreSQLDB.QueryRow("SELECT id, username FROM users WHERE id = $1", id).
		Scan(&user.ID, &user.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func CreateUser(username, passwordHash string) error {
	_, err := PostgreSQLDB.Exec("INSERT INTO users (username, password) VALUES ($1, $2)", username, passwordHash)
	return err
}

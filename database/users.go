// surodeals/database/users.go
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Hokky66/Surodeals/config"
	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"

	"github.com/google/uuid"
)

// CreateUser inserts a new account. Email comparison is case-insensitive.
func (ds *DatabaseService) CreateUser(email, name, passwordHash string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := utils.GetSQLTime()
	res, err := ds.DB.Exec(
		"INSERT INTO users (email, name, password_hash, is_admin, created_at) VALUES (?, ?, ?, 0, ?)",
		email, name, passwordHash, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("email already registered")
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Email: email, Name: name, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// GetUserByEmail fetches an account by email.
func (ds *DatabaseService) GetUserByEmail(email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u models.User
	err := ds.DB.QueryRow(
		"SELECT id, email, name, password_hash, is_admin, created_at FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &u, nil
}

// CreateSession issues a bearer session token for a user.
func (ds *DatabaseService) CreateSession(userID int64) (*models.Session, error) {
	now := utils.GetSQLTime()
	s := &models.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(config.SessionLifetime),
	}
	_, err := ds.DB.Exec(
		"INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return s, nil
}

// GetSessionUser resolves a bearer token to its user, rejecting expired sessions.
func (ds *DatabaseService) GetSessionUser(token string) (*models.User, error) {
	var u models.User
	err := ds.DB.QueryRow(`
		SELECT u.id, u.email, u.name, u.password_hash, u.is_admin, u.created_at
		FROM sessions s JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`, token, utils.GetSQLTime()).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found or expired")
		}
		return nil, err
	}
	return &u, nil
}

// DeleteSession invalidates a bearer token.
func (ds *DatabaseService) DeleteSession(token string) error {
	_, err := ds.DB.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

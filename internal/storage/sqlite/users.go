package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

const userColumns = `id, email, username, first_name, last_name, password_hash, is_admin, is_blocked, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.IsBlocked,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsAdmin,
		user.IsBlocked,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user with email %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Returns a map of user ID to User object.
// Users that don't exist are omitted from the result.
func (s *SQLiteStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// SetUserBlocked blocks or unblocks a user.
func (s *SQLiteStore) SetUserBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_blocked = ?, updated_at = ? WHERE id = ?`,
		blocked, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// CreateFollow subscribes userID to authorID.
func (s *SQLiteStore) CreateFollow(ctx context.Context, userID, authorID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO follows (user_id, author_id, created_at) VALUES (?, ?, ?)`,
		userID, authorID, time.Now().UnixNano(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("follow %s -> %s: %w", userID, authorID, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

// DeleteFollow removes a subscription.
func (s *SQLiteStore) DeleteFollow(ctx context.Context, userID, authorID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("follow %s -> %s: %w", userID, authorID, storage.ErrNotFound)
	}
	return nil
}

// IsFollowing reports whether userID follows authorID.
func (s *SQLiteStore) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return true, nil
}

// ListFollowing returns a page of the authors userID follows.
func (s *SQLiteStore) ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count follows: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
		       u.is_admin, u.is_blocked, u.created_at, u.updated_at
		FROM follows f
		JOIN users u ON u.id = f.author_id
		WHERE f.user_id = ?
		ORDER BY f.created_at, u.id
		LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	var authors []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		authors = append(authors, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating follows: %w", err)
	}

	return authors, total, nil
}

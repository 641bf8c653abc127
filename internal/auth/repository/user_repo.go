package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deskhq/desk-backend/internal/auth/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, display_name, photo_url, created_at, updated_at, last_login_at`

// GetByID retrieves a user by their identity provider uid
func (r *UserRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Upsert creates the user or refreshes the non-empty identity fields.
func (r *UserRepository) Upsert(ctx context.Context, req *domain.SyncRequest) (*domain.User, error) {
	if req.UID == "" {
		return nil, fmt.Errorf("user id required")
	}

	query := `
		INSERT INTO users (id, email, display_name, photo_url, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NOW())
		ON CONFLICT (id) DO UPDATE
		SET email = COALESCE(EXCLUDED.email, users.email),
		    display_name = COALESCE(EXCLUDED.display_name, users.display_name),
		    photo_url = COALESCE(EXCLUDED.photo_url, users.photo_url),
		    updated_at = NOW()
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, req.UID, req.Email, req.DisplayName, req.PhotoURL))
}

// Update updates user information
func (r *UserRepository) Update(ctx context.Context, uid string, req *domain.UpdateRequest) (*domain.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name), photo_url = COALESCE($3, photo_url), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, uid, req.DisplayName, req.PhotoURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLastLogin updates the last login timestamp
func (r *UserRepository) UpdateLastLogin(ctx context.Context, uid string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, uid)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var email, displayName, photoURL sql.NullString
	var lastLoginAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&email,
		&displayName,
		&photoURL,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		user.Email = &email.String
	}
	if displayName.Valid {
		user.DisplayName = &displayName.String
	}
	if photoURL.Valid {
		user.PhotoURL = &photoURL.String
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}
	return &user, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/recipe-service/internal/models"
)

const userColumns = `id, email, name, password_hash, is_active, is_staff, is_superuser, last_login, created_at`

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO core.users (email, name, password_hash, is_active, is_staff, is_superuser, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsStaff, user.IsSuperuser).
		Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM core.users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM core.users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// UpdateUser saves the mutable fields of an existing user
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE core.users
		SET email = $1, name = $2, password_hash = $3, is_active = $4, is_staff = $5, is_superuser = $6
		WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsStaff, user.IsSuperuser, user.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectAffected(res, "user")
}

// TouchLastLogin records a successful login
func (r *Repository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE core.users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return expectAffected(res, "user")
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.IsActive, &user.IsStaff, &user.IsSuperuser, &lastLogin, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

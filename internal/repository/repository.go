package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned by the caller
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("duplicate")
)

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn in a transaction, committing on success
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var migrations = []string{
	`CREATE SCHEMA IF NOT EXISTS core`,
	`CREATE TABLE IF NOT EXISTS core.users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS core.recipes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES core.users(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		time_minutes INTEGER NOT NULL,
		price NUMERIC(5, 2) NOT NULL,
		link VARCHAR(255) NOT NULL DEFAULT '',
		image VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recipes_user_id ON core.recipes(user_id)`,
	`CREATE TABLE IF NOT EXISTS core.tags (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES core.users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS core.ingredients (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES core.users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS core.recipe_tags (
		recipe_id BIGINT NOT NULL REFERENCES core.recipes(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES core.tags(id) ON DELETE CASCADE,
		PRIMARY KEY (recipe_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS core.recipe_ingredients (
		recipe_id BIGINT NOT NULL REFERENCES core.recipes(id) ON DELETE CASCADE,
		ingredient_id BIGINT NOT NULL REFERENCES core.ingredients(id) ON DELETE CASCADE,
		PRIMARY KEY (recipe_id, ingredient_id)
	)`,
}

// Migrate creates the schema if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	for i, query := range migrations {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i, err)
		}
	}
	return nil
}

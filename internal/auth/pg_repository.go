package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-records/internal/apperr"
	"github.com/hackgods/clinic-records/internal/db"
)

type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userCols = `id, email, first_name, last_name, password_hash, is_active, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) CreateUser(ctx context.Context, u User) (*User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userCols,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsActive,
	)

	created, err := scanUser(row)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok && constraint == "users_email_key" {
			return nil, apperr.Conflict("email", "A user with this email already exists.")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *PgUserRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *PgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

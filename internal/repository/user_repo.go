package repository

import (
	"context"
	"strings"

	"tasker/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. The email is stored lower-cased; a taken email yields
// ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, disabled)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		u.ID,
		u.Email,
		u.DisplayName,
		u.PasswordHash,
		u.Disabled,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return duplicate(err)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, email, display_name, password_hash, disabled, created_at, updated_at
		 FROM users `+where,
		arg,
	)

	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.Disabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

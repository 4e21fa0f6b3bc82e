package repository

import (
	"context"

	"tasker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository struct {
	db *pgxpool.Pool
}

func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, name, color, created_at
		 FROM categories WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[domain.Category])
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO categories (id, user_id, name, color) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		c.ID, c.UserID, c.Name, c.Color,
	).Scan(&c.CreatedAt)
}

func (r *CategoryRepository) Delete(ctx context.Context, userID, id string) error {
	return affected(r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID))
}

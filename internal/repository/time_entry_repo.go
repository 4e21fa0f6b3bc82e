package repository

import (
	"context"

	"tasker/internal/apperr"
	"tasker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id, user_id, task_id, task_name, duration, started_at, ended_at, notes`

type TimeEntryRepository struct {
	db *pgxpool.Pool
}

func NewTimeEntryRepository(db *pgxpool.Pool) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// List returns the user's entries, most recent start first.
func (r *TimeEntryRepository) List(ctx context.Context, userID string) ([]domain.TimeEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE user_id = $1 ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[domain.TimeEntry])
}

// CreateAndAccrue inserts e and adds its duration to the linked task in one
// transaction. A missing task rolls the insert back.
func (r *TimeEntryRepository) CreateAndAccrue(ctx context.Context, e *domain.TimeEntry) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO time_entries (`+entryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, e.UserID, e.TaskID, e.TaskName, e.Duration, e.StartedAt, e.EndedAt, e.Notes); err != nil {
			return err
		}
		if e.TaskID == nil {
			return nil
		}
		tag, err := tx.Exec(ctx,
			`UPDATE tasks SET time_spent = time_spent + $3, updated_at = NOW()
			 WHERE id = $1 AND user_id = $2`, *e.TaskID, e.UserID, e.Duration)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

func (r *TimeEntryRepository) Delete(ctx context.Context, userID, id string) error {
	return affected(r.db.Exec(ctx, `DELETE FROM time_entries WHERE id = $1 AND user_id = $2`, id, userID))
}

package repository

import (
	"context"

	"tasker/internal/apperr"
	"tasker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, description, project, priority, due_date, completed, time_spent, created_at, updated_at`

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns the user's tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[domain.Task])
}

func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, err
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[domain.Task])
	return t, notFound(err)
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO tasks (id, user_id, title, description, project, priority, due_date, completed, time_spent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		t.ID, t.UserID, t.Title, t.Description, t.Project, t.Priority, t.DueDate, t.Completed, t.TimeSpent,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// Update writes the editable fields of t. TimeSpent is only changed through
// AddTimeSpent.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`UPDATE tasks
		 SET title = $3, description = $4, project = $5, priority = $6, due_date = $7, completed = $8, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at`,
		t.ID, t.UserID, t.Title, t.Description, t.Project, t.Priority, t.DueDate, t.Completed,
	).Scan(&t.UpdatedAt)
	return notFound(err)
}

// Toggle flips the completion flag and returns the updated task.
func (r *TaskRepository) Toggle(ctx context.Context, userID, id string) (*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE tasks SET completed = NOT completed, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns, id, userID)
	if err != nil {
		return nil, err
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[domain.Task])
	return t, notFound(err)
}

// AddTimeSpent adds delta seconds to the task's accumulated time.
func (r *TaskRepository) AddTimeSpent(ctx context.Context, userID, id string, delta int64) error {
	return affected(r.db.Exec(ctx,
		`UPDATE tasks SET time_spent = time_spent + $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`, id, userID, delta))
}

// Delete removes the task. With cascade its time entries go too; otherwise
// they keep their task name snapshot and lose the link.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string, cascade bool) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if cascade {
			if _, err := tx.Exec(ctx,
				`DELETE FROM time_entries WHERE task_id = $1 AND user_id = $2`, id, userID); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

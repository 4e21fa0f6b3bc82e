package integration

import (
	"context"
	"os"
	"testing"

	"tasker/internal/domain"
	"tasker/internal/migrations"
	"tasker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// connect opens DATABASE_URL and applies the embedded migrations, or skips.
func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := migrations.Apply(context.Background(), db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

// newUser inserts a user with a unique email and removes it (and, by
// cascade, its data) when the test ends.
func newUser(t *testing.T, db *pgxpool.Pool) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        "it-" + uuid.NewString()[:8] + "@example.com",
		DisplayName:  "Integration",
		PasswordHash: "x",
	}
	if err := repository.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, u.ID)
	})
	return u
}

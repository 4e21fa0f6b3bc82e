package main

import (
	"fmt"
	"os"
	"time"

	"tasker/internal/apperr"
	"tasker/internal/domain"
	"tasker/internal/repository"
	"tasker/internal/service"
	"tasker/internal/store"

	"github.com/spf13/cobra"
)

var sampleTasks = []domain.Task{
	{Title: "Write project proposal", Project: "Work", Priority: domain.PriorityHigh},
	{Title: "Review pull requests", Project: "Work", Priority: domain.PriorityMedium},
	{Title: "Plan weekend trip", Project: "Personal", Priority: domain.PriorityLow},
	{Title: "Read chapter 4", Priority: domain.PriorityMedium, Completed: true},
}

func seedCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a user (if missing) with sample data and print a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			sample, _ := cmd.Flags().GetBool("sample")
			secret, _ := cmd.Flags().GetString("jwt-secret")
			audience, _ := cmd.Flags().GetString("audience")
			out := cmd.OutOrStdout()

			users := repository.NewUserRepository(pool)
			identity := service.NewIdentity(users, nil, nil)

			u, err := identity.SignUp(ctx, name, email, password)
			switch {
			case apperr.CodeOf(err) == apperr.CodeEmailAlreadyInUse:
				if u, err = users.GetByEmail(ctx, email); err != nil {
					return fmt.Errorf("load existing user: %w", err)
				}
				fmt.Fprintf(out, "user already exists id=%s\n", u.ID)
			case err != nil:
				return fmt.Errorf("create user: %s", apperr.Message(err))
			default:
				fmt.Fprintf(out, "user created id=%s\n", u.ID)
			}

			if sample {
				st := store.New(
					repository.NewTaskRepository(pool),
					repository.NewCategoryRepository(pool),
					repository.NewTimeEntryRepository(pool),
					store.NewMemoryNotifier(),
				)
				if err := seedSamples(cmd, st, u.ID); err != nil {
					return err
				}
			}

			if secret == "" {
				fmt.Fprintln(out, "JWT_SECRET not set; no token printed")
				return nil
			}
			token, exp, err := service.NewTokenIssuer(secret, audience, service.DefaultTokenTTL).Issue(u)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintf(out, "token=%s\nexpires=%s\n", token, exp.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().String("email", "test@example.com", "User email")
	cmd.Flags().String("name", "Tester", "Display name")
	cmd.Flags().String("password", "secret123", "Password for a new user")
	cmd.Flags().Bool("sample", true, "Add sample categories, tasks and time entries")
	cmd.Flags().String("jwt-secret", os.Getenv("JWT_SECRET"), "Signing key for the printed token")
	cmd.Flags().String("audience", envOr("TOKEN_AUDIENCE", "tasker"), "Token audience")
	return cmd
}

func seedSamples(cmd *cobra.Command, st *store.Store, userID string) error {
	ctx := cmd.Context()
	for _, c := range []struct{ name, color string }{{"Work", "#3b82f6"}, {"Personal", "#10b981"}} {
		if _, err := st.AddCategory(ctx, userID, c.name, c.color); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "skip category %s: %s\n", c.name, apperr.Message(err))
		}
	}

	now := time.Now()
	for i, t := range sampleTasks {
		created, err := st.AddTask(ctx, userID, t)
		if err != nil {
			return fmt.Errorf("add task %q: %w", t.Title, err)
		}
		secs := int64(1800 * (i + 1))
		if _, err := st.RecordTime(ctx, userID, domain.TimeEntry{
			TaskID:    &created.ID,
			TaskName:  created.Title,
			Duration:  secs,
			StartedAt: now.Add(-time.Duration(24*i)*time.Hour - time.Duration(secs)*time.Second),
			EndedAt:   now.Add(-time.Duration(24*i) * time.Hour),
		}); err != nil {
			return fmt.Errorf("record time for %q: %w", t.Title, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tasks\n", len(sampleTasks))
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

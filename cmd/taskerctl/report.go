package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"tasker/internal/analytics"
	"tasker/internal/domain"
	"tasker/internal/report"
	"tasker/internal/repository"

	"github.com/spf13/cobra"
)

func reportCmd(connect connectFunc) *cobra.Command {
	var f analytics.Filter
	var priority, status string

	cmd := &cobra.Command{
		Use:   "report [email]",
		Short: "Print a user's task report as text or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			u, err := repository.NewUserRepository(pool).GetByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}
			tasks, err := repository.NewTaskRepository(pool).List(ctx, u.ID)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}

			f.Priority = domain.Priority(priority)
			f.Status = analytics.Status(status)

			var w io.Writer = cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("out"); path != "" {
				file, err := os.Create(path)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "csv":
				return report.WriteTasksCSV(w, analytics.FilterTasks(tasks, f))
			case "text":
				return report.WriteText(w, report.BuildReport(tasks, f, time.Now()))
			default:
				return fmt.Errorf("unknown format %q (text or csv)", format)
			}
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format (text, csv)")
	cmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "Text search over title, description and project")
	cmd.Flags().StringVar(&f.Project, "project", "", "Only this project")
	cmd.Flags().StringVar(&priority, "priority", "", "Only this priority (low, medium, high)")
	cmd.Flags().StringVar(&status, "status", "", "completed or pending")
	return cmd
}

package main

import (
	"fmt"

	"tasker/internal/migrations"

	"github.com/spf13/cobra"
)

func migrateCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if dryRun {
				names, err := migrations.Names()
				if err != nil {
					return err
				}
				applied, err := migrations.Applied(ctx, pool)
				if err != nil {
					return err
				}
				for _, name := range names {
					state := "pending"
					if applied[name] {
						state = "applied"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", state, name)
				}
				return nil
			}

			done, err := migrations.Apply(ctx, pool)
			if err != nil {
				return err
			}
			for _, name := range done {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			if len(done) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to apply")
			}
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "List migrations and their state without applying")
	return cmd
}

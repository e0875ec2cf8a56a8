package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maxviazov/scorebook-stats-service/migrations"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := ctx.openRepository(cmd.Context())
				if err != nil {
					return err
				}
				defer repo.Close()
				db := repo.SQLDB()
				defer db.Close()
				if err := migrations.Up(cmd.Context(), db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := ctx.openRepository(cmd.Context())
				if err != nil {
					return err
				}
				defer repo.Close()
				db := repo.SQLDB()
				defer db.Close()
				if err := migrations.Down(cmd.Context(), db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, err := ctx.openRepository(cmd.Context())
				if err != nil {
					return err
				}
				defer repo.Close()
				db := repo.SQLDB()
				defer db.Close()
				st, err := migrations.Status(cmd.Context(), db)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(st))
				for _, m := range st {
					applied := "pending"
					if !m.AppliedAt.IsZero() {
						applied = m.AppliedAt.Format(time.RFC3339)
					}
					rows = append(rows, []string{fmt.Sprint(m.Source.Version), m.Source.Path, string(m.State), applied})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Version", "File", "State", "Applied"}, rows, []columnAlignment{alignRight}))
				return nil
			},
		},
	)
	return cmd
}

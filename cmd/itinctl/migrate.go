package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/itinerary-planner/migrations"
)

func newMigrateCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.PersistentFlags().StringVar(&dsn, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string (defaults to $DATABASE_URL)")

	// withProvider opens the database for the duration of fn.
	withProvider := func(fn func(*cobra.Command, *goose.Provider) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				return fmt.Errorf("--database-url or DATABASE_URL required")
			}
			db, err := sql.Open("pgx", dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			p, err := migrations.NewProvider(db)
			if err != nil {
				return err
			}
			return fn(cmd, p)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				results, err := p.Up(cmd.Context())
				printResults(cmd.OutOrStdout(), results)
				return err
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				r, err := p.Down(cmd.Context())
				if r != nil {
					printResults(cmd.OutOrStdout(), []*goose.MigrationResult{r})
				}
				return err
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Roll back every migration (drops all data)",
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				results, err := p.DownTo(cmd.Context(), 0)
				printResults(cmd.OutOrStdout(), results)
				return err
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				status, err := p.Status(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, s := range status {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return tw.Flush()
			}),
		},
	)
	return cmd
}

func printResults(w io.Writer, results []*goose.MigrationResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no migrations to run")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%-4s %s (%s)\n", r.Direction, r.Source.Path, r.Duration.Round(1e6))
	}
}

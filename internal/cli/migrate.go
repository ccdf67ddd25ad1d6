package cli

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/phonginreallife/sentinel/docstore"
	"github.com/phonginreallife/sentinel/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres document table and unique name indexes",
	Long: `Create the documents table used by the postgres backend, with unique
indexes on action_name and team_name in their collections.

Environment Variables Required:
  DATABASE_URL    - PostgreSQL connection string`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.App
		if cfg.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable (or config) is required")
		}

		pg, err := sql.Open("postgres", cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pg.Close()

		if err := pg.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		if err := docstore.Migrate(cmd.Context(), pg, uniqueNames(cfg)); err != nil {
			return err
		}
		logger.Info("migration applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// uniqueNames maps each collection to the field that must be unique in it.
func uniqueNames(cfg config.Config) map[string]string {
	return map[string]string{
		cfg.Collections.Action: "action_name",
		cfg.Collections.Team:   "team_name",
	}
}

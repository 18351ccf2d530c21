package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/killallgit/study-api/internal/database"
)

// migrateCmd creates or upgrades the activity log schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the activity log database",
	Long: `Apply the activity log schema to the SQLite database at database.path.

serve migrates on startup as well, this command is for preparing the
database ahead of time or checking that the path is writable.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := database.InitializeWithMigrations(logger.Named("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.HealthCheck(); err != nil {
		return err
	}

	logger.Info("activity database migrated", zap.String("path", db.Path()))
	fmt.Fprintf(cmd.OutOrStdout(), "Activity database ready at %s\n", db.Path())
	return nil
}

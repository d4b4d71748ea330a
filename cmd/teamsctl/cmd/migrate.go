package cmd

import (
	"github.com/spf13/cobra"

	"github.com/waikato-ufdl/simple-teams/internal/database"
	"github.com/waikato-ufdl/simple-teams/internal/log"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates or updates the schema and seeds the superuser",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.AutoMigrate(conn); err != nil {
			return err
		}
		log.Log.Info("schema is up to date")

		admin, created, err := database.SeedSuperuser(cmd.Context(), conn, cfg)
		if err != nil {
			return err
		}
		if !created {
			log.Log.WithField("username", admin.Username).Info("superuser already exists")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/utils"
)

// migrateCmd creates or extends the schema and exits
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := config.OpenDatabase(cfg.DatabaseURL, cfg.LogLevel)
		if err != nil {
			return err
		}
		if err := config.Migrate(db, models.All()...); err != nil {
			return err
		}
		utils.Sugar.Infow("schema migrated", "database", cfg.DatabaseURL)
		cmd.Println("schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

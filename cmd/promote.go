package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/services"
	"github.com/cppla/blog/utils"
)

var promoteEmail string

// promoteCmd grants the administrator role to an existing account
var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant the administrator role to a registered user",
	Long: `Grant the administrator role to a registered user.

Examples:
  blog promote --email alice@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := config.InitDatabase(cfg, models.All()...)
		if err != nil {
			return err
		}

		user, err := services.NewUserService(db).Promote(promoteEmail)
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("no account registered with %s", promoteEmail)
		}
		if err != nil {
			return err
		}
		utils.Sugar.Infow("user promoted", "user_id", user.ID, "email", user.Email)
		cmd.Printf("%s is now an administrator\n", user.Email)
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "Email of the account to promote")
	_ = promoteCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(promoteCmd)
}

// Package cmd holds the blog command line: serve, migrate and promote.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/utils"
)

var (
	// Global flags
	configPath  string
	databaseURL string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blog",
	Short: "A small multi-user blog",
	Long: `blog serves a multi-user blog: visitors read posts, registered users
comment, and the administrator writes, edits and deletes posts.

Without a subcommand it starts the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.json", "Path to the optional JSON config file")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db", "", "Database URL, overrides DATABASE_URL")
}

// loadConfig reads the configuration and applies the global flags and the
// settings every command needs: logger and password hashing cost.
func loadConfig() (config.AppConfig, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if err := utils.InitLogger(cfg); err != nil {
		return cfg, fmt.Errorf("init logger: %w", err)
	}
	utils.PBKDF2Iterations = cfg.PasswordIterations
	return cfg, nil
}

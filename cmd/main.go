package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/wealthquest-backend/internal/config"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:           "wealthquest",
	Short:         "WealthQuest backend",
	Long:          "Financial planning, gamification and mentor API for WealthQuest.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file (default $WEALTHQUEST_CONFIG)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	// Local development reads .env; deployed environments set real variables.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and the logger shared by every command.
func setup() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

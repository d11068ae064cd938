package cmd

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	config "case-board.com/case-board/internal/configs"
)

var rootCmd = &cobra.Command{
	Use:           "case-board",
	Short:         "Case task board service and CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// loadConfig reads .env when present, then the environment.
func loadConfig() config.Config {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using environment variables")
	}

	cfg := config.Load()
	config.SetupLogging(cfg)
	return cfg
}

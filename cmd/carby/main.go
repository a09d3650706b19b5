package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/carby/config"
	"github.com/shashiranjanraj/carby/pkg/logger"

	// Import migrations so their init() funcs run and register themselves.
	_ "github.com/shashiranjanraj/carby/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	configPath string
	envPath    string
)

var rootCmd = &cobra.Command{
	Use:           "carby",
	Short:         "Carby car dealership site",
	Long:          "Carby serves the dealership site and runs its maintenance tasks: migrations, seeding, queue workers and the scheduler.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig reads the config files named by the global flags and sets up
// the logger for the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath, envPath)
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.AppEnv, os.Stdout)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/app.json", "JSON config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file")

	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}

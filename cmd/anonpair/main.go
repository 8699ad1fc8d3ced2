package main

import (
	"fmt"
	"log"
	"os"

	"anonpair/backend/internal/config"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var rootCmd = &cobra.Command{
	Use:   "anonpair",
	Short: "anonpair - anonymous one-to-one chat relay",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadDotEnv(envFiles...)
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pairing bot and the HTTP/WebSocket API",
	RunE:  runServe,
}

var analystCmd = &cobra.Command{
	Use:   "analyst",
	Short: "Run the literary analysis bot",
	RunE:  runAnalyst,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List archived sessions",
	RunE:  runSessions,
}

var (
	envFiles     []string
	activeOnly   bool
	sessionLimit int
)

// openDB is replaced in tests.
var openDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	sessionsCmd.Flags().BoolVar(&activeOnly, "active", false, "only sessions that have not ended")
	sessionsCmd.Flags().IntVarP(&sessionLimit, "limit", "n", 20, "maximum number of sessions to print")
	rootCmd.AddCommand(serveCmd, analystCmd, sessionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

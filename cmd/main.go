package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/urfave/cli/v3"
)

// Exit codes, matching spec.md §6: 0 clean shutdown, 2 migration failed,
// 3 bind failed, 1 any other fatal.
const (
	exitOK             = 0
	exitFatal          = 1
	exitMigrationError = 2
	exitBindError      = 3
)

var logger *log.Logger

func main() {
	logger = shared.NewLogger(nil)

	app := &cli.Command{
		Name:    "recs-engine",
		Usage:   "Playlist recommendation graph engine",
		Version: "0.1.0",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			recsCommand(),
			statsCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func loadConfigOrDefault(path string) *shared.Config {
	if _, err := os.Stat(path); err == nil {
		if config, err := shared.LoadConfig(path); err == nil {
			return config
		}
		logger.Warn("failed to load config, using defaults", "path", path)
	}
	return shared.DefaultConfig()
}

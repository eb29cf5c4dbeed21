package main

import (
	"context"
	"fmt"

	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Initialize the store and apply pending schema migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to configuration file", Value: "config.toml"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			config := loadConfigOrDefault(cmd.String("config"))

			logger.Info("running migrations", "path", config.Database.Path)
			s, err := store.Open(config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
			}
			defer s.Close()

			logger.Info("migrations complete", "path", config.Database.Path)
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/listmagify/recs-engine/internal/catalog"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the recommendation engine's HTTP dispatch surface",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to configuration file", Value: "config.toml"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			config := loadConfigOrDefault(cmd.String("config"))

			s, err := store.Open(config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			if err != nil {
				logger.Errorf("failed to open store: %v", err)
				if errors.Is(err, shared.ErrMigrationFailure) {
					os.Exit(exitMigrationError)
				}
				os.Exit(exitFatal)
			}
			defer s.Close()

			var client catalog.Client = catalog.NullClient{}
			if config.Catalog.ClientID != "" && config.Catalog.ClientSecret != "" {
				if c, err := catalog.NewHTTPClient(ctx, config.Catalog.ClientID, config.Catalog.ClientSecret); err == nil {
					client = c
				} else {
					logger.Warn("failed to initialize catalog client, enrichment disabled", "error", err)
				}
			}

			runner := NewRunner(RunnerConfig{Config: config, Store: s, Catalog: client, Logger: logger})
			defer runner.Close()

			addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
			listener, err := net.Listen("tcp", addr)
			if err != nil {
				logger.Errorf("failed to bind %s: %v", addr, err)
				os.Exit(exitBindError)
			}

			logger.Info("serving recs engine", "addr", addr)
			httpServer := &http.Server{Handler: runner.router()}
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

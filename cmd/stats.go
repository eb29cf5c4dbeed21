package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print store counts and on-disk size",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.toml"},
		},
		Action: withRunner(func(ctx context.Context, cmd *cli.Command, r *Runner) error {
			stats, err := r.store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.output, "tracks: %d\nadjacency edges: %d\ncooccurrence edges: %d\ndismissals: %d\nsize: %d bytes\n",
				stats.Tracks, stats.AdjacencyEdges, stats.CooccurrenceEdges, stats.Dismissals, stats.SizeBytes)
			return nil
		}),
	}
}

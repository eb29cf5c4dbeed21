package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/listmagify/recs-engine/internal/ingest"
	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/urfave/cli/v3"
)

// recsCommand exposes capture/seed/appendix/dismiss against a Runner's store
// directly, for local debugging without standing up the HTTP surface.
func recsCommand() *cli.Command {
	return &cli.Command{
		Name:  "recs",
		Usage: "Debug the recommendation graph directly against the store",
		Commands: []*cli.Command{
			{
				Name:  "capture",
				Usage: "Ingest a playlist snapshot (comma-separated track IDs)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: "config.toml"},
					&cli.StringFlag{Name: "playlist-id", Required: true},
					&cli.StringFlag{Name: "track-ids", Required: true, Usage: "comma-separated track IDs, in order"},
					&cli.BoolFlag{Name: "cooccurrence-only"},
				},
				Action: withRunner(func(ctx context.Context, cmd *cli.Command, r *Runner) error {
					return r.RecsCapture(ctx, cmd)
				}),
			},
			{
				Name:  "seed",
				Usage: "Run a seed recommendation query",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: "config.toml"},
					&cli.StringFlag{Name: "seed-ids", Required: true},
					&cli.StringFlag{Name: "exclude-ids"},
					&cli.StringFlag{Name: "context-id"},
					&cli.IntFlag{Name: "top-n", Value: 10},
				},
				Action: withRunner(func(ctx context.Context, cmd *cli.Command, r *Runner) error {
					return r.RecsSeed(ctx, cmd)
				}),
			},
			{
				Name:  "appendix",
				Usage: "Run a playlist-appendix recommendation query",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: "config.toml"},
					&cli.StringFlag{Name: "playlist-id", Required: true},
					&cli.IntFlag{Name: "top-n", Value: 10},
				},
				Action: withRunner(func(ctx context.Context, cmd *cli.Command, r *Runner) error {
					return r.RecsAppendix(ctx, cmd)
				}),
			},
			{
				Name:  "dismiss",
				Usage: "Dismiss a track for a context",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: "config.toml"},
					&cli.StringFlag{Name: "track-id", Required: true},
					&cli.StringFlag{Name: "context-id"},
				},
				Action: withRunner(func(ctx context.Context, cmd *cli.Command, r *Runner) error {
					return r.RecsDismiss(ctx, cmd)
				}),
			},
		},
	}
}

// withRunner opens the store configured by --config, wires a Runner, and
// ensures it's closed when the action returns.
func withRunner(fn func(context.Context, *cli.Command, *Runner) error) func(context.Context, *cli.Command) error {
	return func(ctx context.Context, cmd *cli.Command) error {
		config := loadConfigOrDefault(cmd.String("config"))

		r, closeFn, err := openRunner(config)
		if err != nil {
			return err
		}
		defer closeFn()

		return fn(ctx, cmd, r)
	}
}

func splitIDs(raw string) []models.TrackID {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]models.TrackID, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, models.TrackID(p))
		}
	}
	return ids
}

func (r *Runner) RecsCapture(ctx context.Context, cmd *cli.Command) error {
	ids := splitIDs(cmd.String("track-ids"))
	tracks := make([]models.Track, len(ids))
	for i, id := range ids {
		tracks[i] = models.Track{ID: id, Name: string(id)}
	}

	result, err := r.ingestor.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID:       cmd.String("playlist-id"),
		Tracks:           tracks,
		CooccurrenceOnly: cmd.Bool("cooccurrence-only"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.output, "captured %d tracks, %d adjacency edges, %d cooccurrence edges\n",
		result.TracksCaptured, result.AdjacencyEdges, result.CooccurrenceEdges)
	return nil
}

func (r *Runner) RecsSeed(ctx context.Context, cmd *cli.Command) error {
	result, err := r.query.SeedRecommendations(
		ctx,
		splitIDs(cmd.String("seed-ids")),
		splitIDs(cmd.String("exclude-ids")),
		cmd.String("context-id"),
		int(cmd.Int("top-n")),
	)
	if err != nil {
		return err
	}
	printRecommendations(r, result.Recommendations, result.Message)
	return nil
}

func (r *Runner) RecsAppendix(ctx context.Context, cmd *cli.Command) error {
	result, err := r.query.AppendixRecommendations(ctx, cmd.String("playlist-id"), nil, int(cmd.Int("top-n")))
	if err != nil {
		return err
	}
	printRecommendations(r, result.Recommendations, result.Message)
	return nil
}

func (r *Runner) RecsDismiss(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.String("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track-id is required", shared.ErrMissingArgument)
	}
	if err := r.dismissal.Dismiss(ctx, models.TrackID(trackID), cmd.String("context-id")); err != nil {
		return err
	}
	fmt.Fprintf(r.output, "dismissed %s\n", trackID)
	return nil
}

func printRecommendations(r *Runner, recs []models.Recommendation, message string) {
	if message != "" {
		fmt.Fprintln(r.output, message)
		return
	}
	for _, rec := range recs {
		fmt.Fprintf(r.output, "%d. %s (score=%.4f)\n", rec.Rank, rec.TrackID, rec.Score)
	}
}

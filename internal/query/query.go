// package query implements the seed and appendix recommendation endpoints.
package query

import (
	"context"
	"fmt"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/scoring"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
)

const (
	minTopN  = 1
	maxTopN  = 50
	maxSeeds = 5
)

// Engine answers recommendation queries against a Store.
type Engine struct {
	store *store.Store
}

// New returns a query Engine backed by s.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Result is the outcome of a seed or appendix query.
type Result struct {
	Recommendations []models.Recommendation
	Message         string
}

// SeedRecommendations ranks candidates adjacent to or co-occurring with seedIDs,
// excluding excludeIDs, the seeds themselves, and any track dismissed for
// contextID ("global" if empty). Results are capped to top_n clamped to [1, 50].
func (e *Engine) SeedRecommendations(ctx context.Context, seedIDs, excludeIDs []models.TrackID, contextID string, topN int) (Result, error) {
	if len(seedIDs) == 0 || len(seedIDs) > maxSeeds {
		return Result{}, fmt.Errorf("%w: seed_ids must contain between 1 and %d tracks, got %d", shared.ErrInvalidInput, maxSeeds, len(seedIDs))
	}
	if contextID == "" {
		contextID = models.GlobalContext
	}
	topN = clampTopN(topN)

	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrCancelled, ctx.Err())
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	fetcher := &txFetcher{ctx: ctx, tx: tx}
	candidates, err := scoringWithCancellation(ctx, scoring.Seed, seedIDs, fetcher)
	if err != nil {
		return Result{}, err
	}

	exclude := toSet(excludeIDs)
	for _, s := range seedIDs {
		exclude[s] = true
	}

	filtered, err := dropDismissed(ctx, tx, contextID, candidates, exclude)
	if err != nil {
		return Result{}, err
	}

	ranked := scoring.Rank(filtered)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return Result{Recommendations: ranked}, nil
}

// AppendixRecommendations ranks candidates co-occurring with the resolved track
// set (explicit trackIDs, or the playlist's latest snapshot when omitted),
// excluding the resolved set and anything dismissed for playlistID or "global".
func (e *Engine) AppendixRecommendations(ctx context.Context, playlistID string, trackIDs []models.TrackID, topN int) (Result, error) {
	topN = clampTopN(topN)

	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrCancelled, ctx.Err())
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	resolved := trackIDs
	if len(resolved) == 0 {
		resolved, err = tx.LatestTrackIDs(ctx, playlistID)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
		}
	}
	if len(resolved) == 0 {
		return Result{Message: "no snapshot"}, nil
	}

	fetcher := &txFetcher{ctx: ctx, tx: tx}
	candidates, err := scoringWithCancellation(ctx, scoring.Appendix, resolved, fetcher)
	if err != nil {
		return Result{}, err
	}

	exclude := toSet(resolved)

	filtered, err := dropDismissedMulti(ctx, tx, []string{playlistID, models.GlobalContext}, candidates, exclude)
	if err != nil {
		return Result{}, err
	}

	ranked := scoring.Rank(filtered)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return Result{Recommendations: ranked}, nil
}

func clampTopN(topN int) int {
	if topN < minTopN {
		return minTopN
	}
	if topN > maxTopN {
		return maxTopN
	}
	return topN
}

// scoringWithCancellation runs scoring.Score and translates its error: a
// context cancellation noticed between seed iterations maps to
// shared.ErrCancelled, anything else to shared.ErrStoreFailure.
func scoringWithCancellation(ctx context.Context, mode scoring.Mode, seeds []models.TrackID, fetcher scoring.NeighborFetcher) (map[models.TrackID]*scoring.Candidate, error) {
	candidates, err := scoring.Score(ctx, mode, seeds, fetcher)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	return candidates, nil
}

func dropDismissed(ctx context.Context, tx *store.Tx, contextID string, candidates map[models.TrackID]*scoring.Candidate, exclude map[models.TrackID]bool) (map[models.TrackID]*scoring.Candidate, error) {
	return dropDismissedMulti(ctx, tx, []string{contextID, models.GlobalContext}, candidates, exclude)
}

func dropDismissedMulti(ctx context.Context, tx *store.Tx, contextIDs []string, candidates map[models.TrackID]*scoring.Candidate, exclude map[models.TrackID]bool) (map[models.TrackID]*scoring.Candidate, error) {
	dismissed := make(map[models.TrackID]bool)
	seenContext := make(map[string]bool)
	for _, c := range contextIDs {
		if c == "" || seenContext[c] {
			continue
		}
		seenContext[c] = true
		ids, err := tx.DismissalsForContext(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
		}
		for _, id := range ids {
			dismissed[id] = true
		}
	}

	out := make(map[models.TrackID]*scoring.Candidate, len(candidates))
	for id, c := range candidates {
		if exclude[id] || dismissed[id] {
			continue
		}
		out[id] = c
	}
	return out, nil
}

func toSet(ids []models.TrackID) map[models.TrackID]bool {
	set := make(map[models.TrackID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// txFetcher adapts a *store.Tx to scoring.NeighborFetcher.
type txFetcher struct {
	ctx context.Context
	tx  *store.Tx
}

func (f *txFetcher) NeighborsSeq(trackID models.TrackID) ([]store.SeqNeighbor, error) {
	return f.tx.NeighborsSeq(f.ctx, trackID)
}

func (f *txFetcher) NeighborsCooccur(trackID models.TrackID) ([]store.CooccurNeighbor, error) {
	return f.tx.NeighborsCooccur(f.ctx, trackID)
}

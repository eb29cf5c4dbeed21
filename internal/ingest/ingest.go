// package ingest maintains adjacency and co-occurrence edges from submitted playlist snapshots.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
)

// ErrCaptureFailed wraps any store error encountered while ingesting a snapshot.
var ErrCaptureFailed = fmt.Errorf("%w: capture failed", shared.ErrStoreFailure)

// CaptureRequest is a submitted playlist snapshot.
type CaptureRequest struct {
	PlaylistID       string
	Tracks           []models.Track
	CooccurrenceOnly bool
}

// CaptureResult reports the distinct edges touched by one ingestion, not delta-weight.
type CaptureResult struct {
	TracksCaptured    int
	AdjacencyEdges    int
	CooccurrenceEdges int
}

// Ingestor applies snapshots to a Store under a per-playlist advisory lock.
type Ingestor struct {
	store *store.Store
}

// New returns an Ingestor backed by s.
func New(s *store.Store) *Ingestor {
	return &Ingestor{store: s}
}

// CaptureAndUpdateEdges deduplicates req.Tracks preserving first-occurrence order,
// upserts every distinct track, conditionally increments adjacency over consecutive
// pairs, increments co-occurrence over every unordered pair, replaces the playlist's
// latest snapshot, and commits — all within one transaction serialized against other
// ingestions of the same playlist by the store's per-playlist lock.
//
// An empty track list is a no-op: no rows are written or removed, and the returned
// result is zero-valued.
func (i *Ingestor) CaptureAndUpdateEdges(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	if len(req.Tracks) == 0 {
		return CaptureResult{}, nil
	}

	if ctx.Err() != nil {
		return CaptureResult{}, fmt.Errorf("%w: %v", shared.ErrCancelled, ctx.Err())
	}

	unlock := i.store.Locks.Lock(req.PlaylistID)
	defer unlock()

	deduped := dedupe(req.Tracks)

	tx, err := i.store.BeginTx(ctx)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	defer tx.Rollback()

	for _, track := range deduped {
		if err := tx.UpsertTrack(ctx, track); err != nil {
			return CaptureResult{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
		}
	}

	adjacencyEdges := 0
	if !req.CooccurrenceOnly {
		for pos := 1; pos < len(deduped); pos++ {
			prev, next := deduped[pos-1].ID, deduped[pos].ID
			if prev == next {
				continue
			}
			if err := tx.IncrementAdjacency(ctx, prev, next, 1); err != nil {
				return CaptureResult{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
			}
			adjacencyEdges++
		}
	}

	cooccurrenceEdges := 0
	for a := 0; a < len(deduped); a++ {
		for b := a + 1; b < len(deduped); b++ {
			idA, idB := deduped[a].ID, deduped[b].ID
			if idA == idB {
				continue
			}
			if err := tx.IncrementCooccurrence(ctx, idA, idB, 1); err != nil {
				return CaptureResult{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
			}
			cooccurrenceEdges++
		}
	}

	ids := make([]models.TrackID, len(deduped))
	for idx, track := range deduped {
		ids[idx] = track.ID
	}
	if err := tx.ReplacePlaylistTracks(ctx, req.PlaylistID, ids, time.Now().UTC()); err != nil {
		return CaptureResult{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return CaptureResult{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	return CaptureResult{
		TracksCaptured:    len(deduped),
		AdjacencyEdges:    adjacencyEdges,
		CooccurrenceEdges: cooccurrenceEdges,
	}, nil
}

// dedupe removes repeated TrackIDs, keeping each track's first occurrence and position.
func dedupe(tracks []models.Track) []models.Track {
	seen := make(map[models.TrackID]bool, len(tracks))
	out := make([]models.Track, 0, len(tracks))
	for _, track := range tracks {
		if seen[track.ID] {
			continue
		}
		seen[track.ID] = true
		out = append(out, track)
	}
	return out
}

package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func track(id string) models.Track {
	return models.Track{ID: models.TrackID(id), Name: id}
}

func TestCaptureAndUpdateEdgesEmptyInputIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ing := New(s)

	result, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{PlaylistID: "P1"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if result != (CaptureResult{}) {
		t.Errorf("expected zero-valued result for empty input, got %+v", result)
	}

	ids, err := s.LatestTrackIDs(ctx, "P1")
	if err != nil {
		t.Fatalf("latest_track_ids: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no playlist_tracks row, got %v", ids)
	}
}

// Scenario 1: Simple seed.
func TestCaptureSimpleAdjacency(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ing := New(s)

	result, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B"), track("C")},
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if result.TracksCaptured != 3 || result.AdjacencyEdges != 2 || result.CooccurrenceEdges != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}

	neighbors, err := s.NeighborsSeq(ctx, "A")
	if err != nil {
		t.Fatalf("neighbors_seq: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].TrackID != "B" || neighbors[0].Weight != 1 {
		t.Fatalf("expected A->B weight 1, got %+v", neighbors)
	}
}

// Scenario 2: Cumulative adjacency across separate playlists.
func TestCaptureCumulativeAdjacencyAcrossPlaylists(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ing := New(s)

	if _, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B")},
	}); err != nil {
		t.Fatalf("capture P1: %v", err)
	}
	if _, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{
		PlaylistID: "P2",
		Tracks:     []models.Track{track("A"), track("B")},
	}); err != nil {
		t.Fatalf("capture P2: %v", err)
	}

	neighbors, err := s.NeighborsSeq(ctx, "A")
	if err != nil {
		t.Fatalf("neighbors_seq: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].Weight != 2 {
		t.Fatalf("expected A->B weight 2 after two ingestions, got %+v", neighbors)
	}
}

// Scenario 3: Dedup within a single snapshot.
func TestCaptureDedupWithinSnapshot(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ing := New(s)

	result, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{
		PlaylistID: "P3",
		Tracks:     []models.Track{track("X"), track("Y"), track("X")},
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if result.TracksCaptured != 2 || result.AdjacencyEdges != 1 || result.CooccurrenceEdges != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	xNeighbors, err := s.NeighborsSeq(ctx, "X")
	if err != nil {
		t.Fatalf("neighbors_seq: %v", err)
	}
	if len(xNeighbors) != 1 || xNeighbors[0].TrackID != "Y" || xNeighbors[0].Direction != store.DirectionOut {
		t.Fatalf("expected only X->Y, got %+v", xNeighbors)
	}

	cooccur, err := s.NeighborsCooccur(ctx, "X")
	if err != nil {
		t.Fatalf("neighbors_cooccur: %v", err)
	}
	if len(cooccur) != 1 || cooccur[0].TrackID != "Y" || cooccur[0].Weight != 1 {
		t.Fatalf("expected cooccur {X,Y} weight 1, got %+v", cooccur)
	}
}

func TestCaptureCooccurrenceOnlySkipsAdjacency(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ing := New(s)

	result, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{
		PlaylistID:       "P1",
		Tracks:           []models.Track{track("A"), track("B")},
		CooccurrenceOnly: true,
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if result.AdjacencyEdges != 0 || result.CooccurrenceEdges != 1 {
		t.Fatalf("expected adjacency skipped, cooccurrence still additive: %+v", result)
	}

	neighbors, err := s.NeighborsSeq(ctx, "A")
	if err != nil {
		t.Fatalf("neighbors_seq: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("expected no adjacency edges, got %+v", neighbors)
	}
}

func TestCaptureReplacesLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ing := New(s)

	if _, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B"), track("C")},
	}); err != nil {
		t.Fatalf("first capture: %v", err)
	}

	got, err := s.LatestTrackIDs(ctx, "P1")
	if err != nil {
		t.Fatalf("latest_track_ids: %v", err)
	}
	want := []models.TrackID{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// Scenario 6: concurrent ingestion of the same playlist.
func TestConcurrentCaptureSameplaylist(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	ing := New(s)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ing.CaptureAndUpdateEdges(ctx, CaptureRequest{
				PlaylistID: "P6",
				Tracks:     []models.Track{track("A"), track("B")},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent capture failed: %v", err)
		}
	}

	neighbors, err := s.NeighborsSeq(ctx, "A")
	if err != nil {
		t.Fatalf("neighbors_seq: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].Weight != 2 {
		t.Fatalf("expected A->B weight 2 after two concurrent ingestions, got %+v", neighbors)
	}
}

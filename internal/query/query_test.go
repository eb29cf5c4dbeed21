package query

import (
	"context"
	"errors"
	"testing"

	"github.com/listmagify/recs-engine/internal/ingest"
	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/shared"
	"github.com/listmagify/recs-engine/internal/store"
)

func setupEngine(t *testing.T) (*store.Store, *ingest.Ingestor, *Engine) {
	t.Helper()
	s, err := store.Open(":memory:", 1, 1)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, ingest.New(s), New(s)
}

func track(id string) models.Track {
	return models.Track{ID: models.TrackID(id), Name: id}
}

func TestSeedRecommendationsRejectsEmptySeeds(t *testing.T) {
	ctx := context.Background()
	_, _, eng := setupEngine(t)

	_, err := eng.SeedRecommendations(ctx, nil, nil, "", 10)
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSeedRecommendationsRejectsTooManySeeds(t *testing.T) {
	ctx := context.Background()
	_, _, eng := setupEngine(t)

	seeds := []models.TrackID{"A", "B", "C", "D", "E", "F"}
	_, err := eng.SeedRecommendations(ctx, seeds, nil, "", 10)
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// Scenario 1: Simple seed.
func TestSeedRecommendationsSimple(t *testing.T) {
	ctx := context.Background()
	_, ing, eng := setupEngine(t)

	if _, err := ing.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B"), track("C")},
	}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	result, err := eng.SeedRecommendations(ctx, []models.TrackID{"A"}, nil, "", 10)
	if err != nil {
		t.Fatalf("seed_recommendations: %v", err)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %+v", result.Recommendations)
	}
	if result.Recommendations[0].TrackID != "B" || result.Recommendations[0].Rank != 1 {
		t.Errorf("expected B ranked first, got %+v", result.Recommendations[0])
	}
	if result.Recommendations[1].TrackID != "C" || result.Recommendations[1].Rank != 2 {
		t.Errorf("expected C ranked second, got %+v", result.Recommendations[1])
	}
}

func TestSeedRecommendationsClampsTopN(t *testing.T) {
	ctx := context.Background()
	_, ing, eng := setupEngine(t)

	if _, err := ing.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B"), track("C")},
	}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	result, err := eng.SeedRecommendations(ctx, []models.TrackID{"A"}, nil, "", 0)
	if err != nil {
		t.Fatalf("seed_recommendations: %v", err)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected at least 1 recommendation when top_n clamped up from 0")
	}

	result, err = eng.SeedRecommendations(ctx, []models.TrackID{"A"}, nil, "", 1000)
	if err != nil {
		t.Fatalf("seed_recommendations: %v", err)
	}
	if len(result.Recommendations) > 50 {
		t.Fatalf("expected at most 50 recommendations, got %d", len(result.Recommendations))
	}
}

func TestSeedRecommendationsExcludesSeedsAndExcludeList(t *testing.T) {
	ctx := context.Background()
	_, ing, eng := setupEngine(t)

	if _, err := ing.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B"), track("C")},
	}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	result, err := eng.SeedRecommendations(ctx, []models.TrackID{"A"}, []models.TrackID{"B"}, "", 10)
	if err != nil {
		t.Fatalf("seed_recommendations: %v", err)
	}
	for _, rec := range result.Recommendations {
		if rec.TrackID == "A" || rec.TrackID == "B" {
			t.Errorf("recommendation should not include excluded/seed track: %+v", rec)
		}
	}
}

// Scenario 5: Dismissal scoping.
func TestAppendixDismissalScoping(t *testing.T) {
	ctx := context.Background()
	s, ing, eng := setupEngine(t)

	if _, err := ing.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID: "P4",
		Tracks:     []models.Track{track("A"), track("B"), track("C"), track("D")},
	}); err != nil {
		t.Fatalf("capture P4: %v", err)
	}
	if _, err := ing.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID: "P5",
		Tracks:     []models.Track{track("C"), track("D"), track("E")},
	}); err != nil {
		t.Fatalf("capture P5: %v", err)
	}

	result, err := eng.AppendixRecommendations(ctx, "P4", nil, 10)
	if err != nil {
		t.Fatalf("appendix P4: %v", err)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].TrackID != "E" {
		t.Fatalf("expected only E recommended for P4, got %+v", result.Recommendations)
	}

	// A dismissal scoped to P4 hides E for P4 only.
	if err := s.InsertDismissal(ctx, "P4", "E"); err != nil {
		t.Fatalf("insert_dismissal P4: %v", err)
	}
	result, err = eng.AppendixRecommendations(ctx, "P4", nil, 10)
	if err != nil {
		t.Fatalf("appendix P4: %v", err)
	}
	if len(result.Recommendations) != 0 {
		t.Fatalf("expected E omitted for P4 after dismissal in P4, got %+v", result.Recommendations)
	}

	hasE := func(recs []models.Recommendation) bool {
		for _, rec := range recs {
			if rec.TrackID == "E" {
				return true
			}
		}
		return false
	}
	result, err = eng.AppendixRecommendations(ctx, "P7", []models.TrackID{"C"}, 10)
	if err != nil {
		t.Fatalf("appendix P7: %v", err)
	}
	if !hasE(result.Recommendations) {
		t.Fatalf("expected E still recommended for P7, got %+v", result.Recommendations)
	}

	// A global dismissal hides E in every context.
	if err := s.InsertDismissal(ctx, models.GlobalContext, "E"); err != nil {
		t.Fatalf("insert_dismissal global: %v", err)
	}
	result, err = eng.AppendixRecommendations(ctx, "P7", []models.TrackID{"C"}, 10)
	if err != nil {
		t.Fatalf("appendix P7: %v", err)
	}
	if hasE(result.Recommendations) {
		t.Fatalf("expected E omitted for P7 after global dismissal, got %+v", result.Recommendations)
	}
}

func TestAppendixReturnsMessageWhenNoSnapshot(t *testing.T) {
	ctx := context.Background()
	_, _, eng := setupEngine(t)

	result, err := eng.AppendixRecommendations(ctx, "unknown-playlist", nil, 10)
	if err != nil {
		t.Fatalf("appendix: %v", err)
	}
	if result.Message != "no snapshot" {
		t.Errorf("expected 'no snapshot' message, got %q", result.Message)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %+v", result.Recommendations)
	}
}

func TestSeedRecommendationsPropagatesCancellationAsErrCancelled(t *testing.T) {
	ctx := context.Background()
	_, ing, eng := setupEngine(t)

	if _, err := ing.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B"), track("C")},
	}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	_, err := eng.SeedRecommendations(cancelCtx, []models.TrackID{"A", "B"}, nil, "", 10)
	if !errors.Is(err, shared.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestDismissalRemovesTrackFromResultsUntilCleared(t *testing.T) {
	ctx := context.Background()
	s, ing, eng := setupEngine(t)

	if _, err := ing.CaptureAndUpdateEdges(ctx, ingest.CaptureRequest{
		PlaylistID: "P1",
		Tracks:     []models.Track{track("A"), track("B"), track("C")},
	}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	if err := s.InsertDismissal(ctx, "P1", "B"); err != nil {
		t.Fatalf("insert_dismissal: %v", err)
	}

	result, err := eng.SeedRecommendations(ctx, []models.TrackID{"A"}, nil, "P1", 10)
	if err != nil {
		t.Fatalf("seed_recommendations: %v", err)
	}
	for _, rec := range result.Recommendations {
		if rec.TrackID == "B" {
			t.Fatalf("dismissed track B should not appear, got %+v", result.Recommendations)
		}
	}

	if err := s.ClearContext(ctx, "P1"); err != nil {
		t.Fatalf("clear_context: %v", err)
	}

	result, err = eng.SeedRecommendations(ctx, []models.TrackID{"A"}, nil, "P1", 10)
	if err != nil {
		t.Fatalf("seed_recommendations: %v", err)
	}
	found := false
	for _, rec := range result.Recommendations {
		if rec.TrackID == "B" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected B to reappear after clearing P1 context")
	}
}

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/shared"
)

func TestNullClientReturnsEmpty(t *testing.T) {
	var c NullClient
	tracks, err := c.SeveralTracks(context.Background(), []models.TrackID{"A"})
	if err != nil {
		t.Fatalf("several_tracks: %v", err)
	}
	if len(tracks) != 0 {
		t.Fatalf("expected no tracks from NullClient, got %+v", tracks)
	}
}

func TestNewHTTPClientRejectsMissingCredentials(t *testing.T) {
	_, err := NewHTTPClient(context.Background(), "", "secret")
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSeveralTracksRejectsOversizedBatch(t *testing.T) {
	client, err := NewHTTPClient(context.Background(), "id", "secret")
	if err != nil {
		t.Fatalf("new_http_client: %v", err)
	}

	ids := make([]models.TrackID, maxBatchSize+1)
	for i := range ids {
		ids[i] = models.TrackID("t")
	}

	_, err = client.SeveralTracks(context.Background(), ids)
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSeveralTracksEmptyInputIsNoop(t *testing.T) {
	client, err := NewHTTPClient(context.Background(), "id", "secret")
	if err != nil {
		t.Fatalf("new_http_client: %v", err)
	}
	tracks, err := client.SeveralTracks(context.Background(), nil)
	if err != nil {
		t.Fatalf("several_tracks: %v", err)
	}
	if tracks != nil {
		t.Fatalf("expected nil tracks for empty input, got %+v", tracks)
	}
}

// package catalog fetches external track metadata to enrich recommendation results.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const maxBatchSize = 50

// Client looks up track metadata from an external music catalog.
type Client interface {
	// SeveralTracks fetches metadata for up to 50 track IDs in one call.
	SeveralTracks(ctx context.Context, ids []models.TrackID) ([]models.TrackMetadata, error)
}

// NullClient is a no-op Client used when no external catalog is configured.
// Every lookup returns an empty result, never an error.
type NullClient struct{}

func (NullClient) SeveralTracks(ctx context.Context, ids []models.TrackID) ([]models.TrackMetadata, error) {
	return nil, nil
}

const (
	catalogTokenURL = "https://accounts.spotify.com/api/token"
	catalogBaseURL  = "https://api.spotify.com/v1"
)

// HTTPClient is a Client backed by the Spotify Web API, authenticated with the
// client-credentials flow (catalog lookups are public data, no user token needed).
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient builds a catalog client authenticated against clientID/clientSecret.
func NewHTTPClient(ctx context.Context, clientID, clientSecret string) (*HTTPClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing catalog client_id or client_secret", shared.ErrInvalidConfig)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     catalogTokenURL,
	}

	return &HTTPClient{httpClient: config.Client(ctx)}, nil
}

// SeveralTracks fetches metadata for up to 50 track IDs in one request.
func (c *HTTPClient) SeveralTracks(ctx context.Context, ids []models.TrackID) ([]models.TrackMetadata, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxBatchSize {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed, got %d", shared.ErrInvalidInput, maxBatchSize, len(ids))
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	endpoint := fmt.Sprintf("%s/tracks?ids=%s", catalogBaseURL, url.QueryEscape(strings.Join(raw, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", shared.ErrAPIRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: catalog responded with status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var body struct {
		Tracks []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			DurationMS int `json:"duration_ms"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode catalog response: %v", shared.ErrAPIRequest, err)
	}

	out := make([]models.TrackMetadata, 0, len(body.Tracks))
	for _, t := range body.Tracks {
		if t.ID == "" {
			continue
		}
		meta := models.TrackMetadata{
			ID:         models.TrackID(t.ID),
			Name:       t.Name,
			AlbumName:  t.Album.Name,
			DurationMS: t.DurationMS,
		}
		if len(t.Artists) > 0 {
			meta.ArtistName = t.Artists[0].Name
		}
		out = append(out, meta)
	}
	return out, nil
}

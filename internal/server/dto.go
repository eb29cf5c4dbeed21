package server

import "github.com/listmagify/recs-engine/internal/models"

// artistDTO is the nested artist object on an inbound Track payload.
type artistDTO struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// albumDTO is the nested album object on an inbound Track payload.
type albumDTO struct {
	Name string `json:"name"`
}

// trackDTO is the wire shape of a track as submitted to /recs/capture.
// Only ID (or URI if ID is absent) is authoritative for the engine.
type trackDTO struct {
	ID         string      `json:"id"`
	URI        string      `json:"uri"`
	Name       string      `json:"name"`
	Artists    []artistDTO `json:"artists"`
	Album      *albumDTO   `json:"album,omitempty"`
	DurationMS int         `json:"durationMs"`
}

func (t trackDTO) toModel() models.Track {
	id := t.ID
	if id == "" {
		id = t.URI
	}
	track := models.Track{ID: models.TrackID(id), Name: t.Name}
	if len(t.Artists) > 0 {
		artist := t.Artists[0]
		if artist.ID != "" {
			aid := artist.ID
			track.ArtistID = &aid
		}
		if artist.Name != "" {
			name := artist.Name
			track.ArtistName = &name
		}
	}
	return track
}

// captureRequest is the body of POST /recs/capture.
type captureRequest struct {
	PlaylistID       string     `json:"playlistId"`
	Tracks           []trackDTO `json:"tracks"`
	CooccurrenceOnly bool       `json:"cooccurrenceOnly,omitempty"`
}

type captureStats struct {
	TracksCaptured    int64 `json:"tracksCapture"`
	AdjacencyEdges    int64 `json:"adjacencyEdges"`
	CooccurrenceEdges int64 `json:"cooccurrenceEdges"`
}

type captureResponse struct {
	Success bool         `json:"success"`
	Enabled bool         `json:"enabled"`
	Stats   captureStats `json:"stats"`
}

// seedRequest is the body of POST /recs/seed.
type seedRequest struct {
	SeedTrackIDs    []string `json:"seedTrackIds"`
	ExcludeTrackIDs []string `json:"excludeTrackIds,omitempty"`
	PlaylistID      string   `json:"playlistId,omitempty"`
	TopN            int      `json:"topN,omitempty"`
	IncludeMetadata bool     `json:"includeMetadata,omitempty"`
}

// appendixRequest is the body/query of POST|GET /recs/playlist-appendix.
type appendixRequest struct {
	PlaylistID      string   `json:"playlistId"`
	TrackIDs        []string `json:"trackIds,omitempty"`
	TopN            int      `json:"topN,omitempty"`
	IncludeMetadata bool     `json:"includeMetadata,omitempty"`
}

type recommendationDTO struct {
	TrackID string            `json:"trackId"`
	Score   float32           `json:"score"`
	Rank    int               `json:"rank"`
	Track   *trackMetadataDTO `json:"track,omitempty"`
}

type trackMetadataDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistName string `json:"artistName,omitempty"`
	AlbumName  string `json:"albumName,omitempty"`
	DurationMS int    `json:"durationMs,omitempty"`
}

func toRecommendationDTOs(recs []models.Recommendation) []recommendationDTO {
	out := make([]recommendationDTO, len(recs))
	for i, r := range recs {
		out[i] = recommendationDTO{
			TrackID: string(r.TrackID),
			Score:   r.Score,
			Rank:    r.Rank,
		}
		if r.Track != nil {
			out[i].Track = &trackMetadataDTO{
				ID:         string(r.Track.ID),
				Name:       r.Track.Name,
				ArtistName: r.Track.ArtistName,
				AlbumName:  r.Track.AlbumName,
				DurationMS: r.Track.DurationMS,
			}
		}
	}
	return out
}

type recommendationsResponse struct {
	Recommendations []recommendationDTO `json:"recommendations"`
	Enabled         bool                `json:"enabled"`
	Message         string              `json:"message,omitempty"`
}

// dismissRequest is the body of POST /recs/dismiss.
type dismissRequest struct {
	TrackID   string `json:"trackId"`
	ContextID string `json:"contextId,omitempty"`
}

type dismissResponse struct {
	Success bool `json:"success"`
}

type statsResponse struct {
	Tracks            int64 `json:"tracks"`
	AdjacencyEdges    int64 `json:"adjacencyEdges"`
	CooccurrenceEdges int64 `json:"cooccurrenceEdges"`
	Dismissals        int64 `json:"dismissals"`
	SizeBytes         int64 `json:"sizeBytes"`
}

type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}

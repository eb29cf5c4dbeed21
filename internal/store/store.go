// package store persists tracks and their adjacency/co-occurrence edges to an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/listmagify/recs-engine/internal/models"
	"github.com/listmagify/recs-engine/internal/shared"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, letting every operation below
// run unmodified against a live connection or a transaction handle.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the SQLite connection pool and the per-playlist advisory locks.
type Store struct {
	db    *sql.DB
	Locks *PlaylistLocks
}

// Open connects to the SQLite database at path, configures the connection pool,
// enables WAL journaling for concurrent readers, and runs pending migrations.
func Open(path string, maxOpenConns, maxIdleConns int) (*Store, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}

	shared.ConfigureDatabase(db, maxOpenConns, maxIdleConns)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to enable foreign keys: %v", shared.ErrStoreFailure, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to enable WAL mode: %v", shared.ErrStoreFailure, err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", shared.ErrMigrationFailure, err)
	}

	return &Store{db: db, Locks: NewPlaylistLocks()}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a transaction handle returned by BeginTx, exposing the same operation
// set as Store but scoped to the transaction (read-your-writes).
type Tx struct {
	tx *sql.Tx
}

// BeginTx opens a new transaction against the store.
func (s *Store) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreFailure, err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after a successful Commit (no-op).
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// PlaylistLocks serializes concurrent ingestions of the same playlist.
type PlaylistLocks struct {
	mu sync.Map
}

// NewPlaylistLocks returns an empty set of per-playlist locks.
func NewPlaylistLocks() *PlaylistLocks {
	return &PlaylistLocks{}
}

// Lock acquires the advisory lock for playlistID and returns a function that
// releases it. Call the returned function once the ingestion transaction has
// committed or rolled back.
func (p *PlaylistLocks) Lock(playlistID string) func() {
	v, _ := p.mu.LoadOrStore(playlistID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// UpsertTrack inserts or updates a track's catalog attributes.
func (s *Store) UpsertTrack(ctx context.Context, track models.Track) error {
	return upsertTrack(ctx, s.db, track)
}

func (t *Tx) UpsertTrack(ctx context.Context, track models.Track) error {
	return upsertTrack(ctx, t.tx, track)
}

func upsertTrack(ctx context.Context, db dbtx, track models.Track) error {
	if err := track.ID.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO tracks (track_id, name, artist_id, artist_name, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			name = excluded.name,
			artist_id = excluded.artist_id,
			artist_name = excluded.artist_name,
			updated_at = excluded.updated_at
	`, string(track.ID), track.Name, track.ArtistID, track.ArtistName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: upsert track %s: %v", shared.ErrStoreFailure, track.ID, err)
	}
	return nil
}

// IncrementAdjacency adds delta to the directed weight from → to, creating the
// row if it doesn't exist. from and to must differ.
func (s *Store) IncrementAdjacency(ctx context.Context, from, to models.TrackID, delta int64) error {
	return incrementAdjacency(ctx, s.db, from, to, delta)
}

func (t *Tx) IncrementAdjacency(ctx context.Context, from, to models.TrackID, delta int64) error {
	return incrementAdjacency(ctx, t.tx, from, to, delta)
}

func incrementAdjacency(ctx context.Context, db dbtx, from, to models.TrackID, delta int64) error {
	if from == to {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO track_edges_seq (from_track_id, to_track_id, weight)
		VALUES (?, ?, ?)
		ON CONFLICT(from_track_id, to_track_id) DO UPDATE SET weight = weight + excluded.weight
	`, string(from), string(to), delta)
	if err != nil {
		return fmt.Errorf("%w: increment adjacency %s->%s: %v", shared.ErrStoreFailure, from, to, err)
	}
	return nil
}

// IncrementCooccurrence adds delta to the undirected weight {a, b}, canonicalizing
// the pair so the lower TrackID is stored first. a and b must differ.
func (s *Store) IncrementCooccurrence(ctx context.Context, a, b models.TrackID, delta int64) error {
	return incrementCooccurrence(ctx, s.db, a, b, delta)
}

func (t *Tx) IncrementCooccurrence(ctx context.Context, a, b models.TrackID, delta int64) error {
	return incrementCooccurrence(ctx, t.tx, a, b, delta)
}

func incrementCooccurrence(ctx context.Context, db dbtx, a, b models.TrackID, delta int64) error {
	if a == b {
		return nil
	}
	if a > b {
		a, b = b, a
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO track_cooccurrence (track_id_a, track_id_b, weight)
		VALUES (?, ?, ?)
		ON CONFLICT(track_id_a, track_id_b) DO UPDATE SET weight = weight + excluded.weight
	`, string(a), string(b), delta)
	if err != nil {
		return fmt.Errorf("%w: increment cooccurrence {%s,%s}: %v", shared.ErrStoreFailure, a, b, err)
	}
	return nil
}

// ReplacePlaylistTracks deletes any prior rows for playlistID and inserts trackIDs
// as the new latest snapshot, in order.
func (s *Store) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []models.TrackID, ts time.Time) error {
	return replacePlaylistTracks(ctx, s.db, playlistID, trackIDs, ts)
}

func (t *Tx) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []models.TrackID, ts time.Time) error {
	return replacePlaylistTracks(ctx, t.tx, playlistID, trackIDs, ts)
}

func replacePlaylistTracks(ctx context.Context, db dbtx, playlistID string, trackIDs []models.TrackID, ts time.Time) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("%w: clear playlist_tracks for %s: %v", shared.ErrStoreFailure, playlistID, err)
	}

	for position, trackID := range trackIDs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO playlist_tracks (playlist_id, position, track_id, snapshot_ts)
			VALUES (?, ?, ?, ?)
		`, playlistID, position, string(trackID), ts)
		if err != nil {
			return fmt.Errorf("%w: insert playlist_tracks for %s: %v", shared.ErrStoreFailure, playlistID, err)
		}
	}
	return nil
}

// SeqDirection indicates whether a sequential neighbor was reached via an
// outgoing or incoming adjacency edge.
type SeqDirection string

const (
	DirectionOut SeqDirection = "out"
	DirectionIn  SeqDirection = "in"
)

// SeqNeighbor is one row from NeighborsSeq.
type SeqNeighbor struct {
	TrackID   models.TrackID
	Weight    int64
	Direction SeqDirection
}

// NeighborsSeq returns every adjacency neighbor of trackID in both directions.
func (s *Store) NeighborsSeq(ctx context.Context, trackID models.TrackID) ([]SeqNeighbor, error) {
	return neighborsSeq(ctx, s.db, trackID)
}

func (t *Tx) NeighborsSeq(ctx context.Context, trackID models.TrackID) ([]SeqNeighbor, error) {
	return neighborsSeq(ctx, t.tx, trackID)
}

func neighborsSeq(ctx context.Context, db dbtx, trackID models.TrackID) ([]SeqNeighbor, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT to_track_id, weight, 'out' FROM track_edges_seq WHERE from_track_id = ?
		UNION ALL
		SELECT from_track_id, weight, 'in' FROM track_edges_seq WHERE to_track_id = ?
	`, string(trackID), string(trackID))
	if err != nil {
		return nil, fmt.Errorf("%w: neighbors_seq %s: %v", shared.ErrStoreFailure, trackID, err)
	}
	defer rows.Close()

	var out []SeqNeighbor
	for rows.Next() {
		var neighbor string
		var weight int64
		var direction string
		if err := rows.Scan(&neighbor, &weight, &direction); err != nil {
			return nil, fmt.Errorf("%w: scan neighbors_seq row: %v", shared.ErrStoreFailure, err)
		}
		out = append(out, SeqNeighbor{TrackID: models.TrackID(neighbor), Weight: weight, Direction: SeqDirection(direction)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate neighbors_seq: %v", shared.ErrStoreFailure, err)
	}
	return out, nil
}

// CooccurNeighbor is one row from NeighborsCooccur.
type CooccurNeighbor struct {
	TrackID models.TrackID
	Weight  int64
}

// NeighborsCooccur returns every co-occurrence neighbor of trackID.
func (s *Store) NeighborsCooccur(ctx context.Context, trackID models.TrackID) ([]CooccurNeighbor, error) {
	return neighborsCooccur(ctx, s.db, trackID)
}

func (t *Tx) NeighborsCooccur(ctx context.Context, trackID models.TrackID) ([]CooccurNeighbor, error) {
	return neighborsCooccur(ctx, t.tx, trackID)
}

func neighborsCooccur(ctx context.Context, db dbtx, trackID models.TrackID) ([]CooccurNeighbor, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT track_id_b, weight FROM track_cooccurrence WHERE track_id_a = ?
		UNION ALL
		SELECT track_id_a, weight FROM track_cooccurrence WHERE track_id_b = ?
	`, string(trackID), string(trackID))
	if err != nil {
		return nil, fmt.Errorf("%w: neighbors_cooccur %s: %v", shared.ErrStoreFailure, trackID, err)
	}
	defer rows.Close()

	var out []CooccurNeighbor
	for rows.Next() {
		var neighbor string
		var weight int64
		if err := rows.Scan(&neighbor, &weight); err != nil {
			return nil, fmt.Errorf("%w: scan neighbors_cooccur row: %v", shared.ErrStoreFailure, err)
		}
		out = append(out, CooccurNeighbor{TrackID: models.TrackID(neighbor), Weight: weight})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate neighbors_cooccur: %v", shared.ErrStoreFailure, err)
	}
	return out, nil
}

// IsDismissed reports whether trackID is dismissed within contextID.
func (s *Store) IsDismissed(ctx context.Context, contextID string, trackID models.TrackID) (bool, error) {
	return isDismissed(ctx, s.db, contextID, trackID)
}

func (t *Tx) IsDismissed(ctx context.Context, contextID string, trackID models.TrackID) (bool, error) {
	return isDismissed(ctx, t.tx, contextID, trackID)
}

func isDismissed(ctx context.Context, db dbtx, contextID string, trackID models.TrackID) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM dismissed_recommendations WHERE context_id = ? AND track_id = ?)
	`, contextID, string(trackID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: is_dismissed: %v", shared.ErrStoreFailure, err)
	}
	return exists, nil
}

// DismissalsForContext returns every dismissed TrackID within contextID.
func (s *Store) DismissalsForContext(ctx context.Context, contextID string) ([]models.TrackID, error) {
	return dismissalsForContext(ctx, s.db, contextID)
}

func (t *Tx) DismissalsForContext(ctx context.Context, contextID string) ([]models.TrackID, error) {
	return dismissalsForContext(ctx, t.tx, contextID)
}

func dismissalsForContext(ctx context.Context, db dbtx, contextID string) ([]models.TrackID, error) {
	rows, err := db.QueryContext(ctx, `SELECT track_id FROM dismissed_recommendations WHERE context_id = ?`, contextID)
	if err != nil {
		return nil, fmt.Errorf("%w: dismissals_for_context: %v", shared.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []models.TrackID
	for rows.Next() {
		var trackID string
		if err := rows.Scan(&trackID); err != nil {
			return nil, fmt.Errorf("%w: scan dismissal row: %v", shared.ErrStoreFailure, err)
		}
		out = append(out, models.TrackID(trackID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate dismissals: %v", shared.ErrStoreFailure, err)
	}
	return out, nil
}

// InsertDismissal records a dismissal, replacing any existing row for the same pair.
func (s *Store) InsertDismissal(ctx context.Context, contextID string, trackID models.TrackID) error {
	return insertDismissal(ctx, s.db, contextID, trackID)
}

func (t *Tx) InsertDismissal(ctx context.Context, contextID string, trackID models.TrackID) error {
	return insertDismissal(ctx, t.tx, contextID, trackID)
}

func insertDismissal(ctx context.Context, db dbtx, contextID string, trackID models.TrackID) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO dismissed_recommendations (context_id, track_id, dismissed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(context_id, track_id) DO UPDATE SET dismissed_at = excluded.dismissed_at
	`, contextID, string(trackID), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: insert_dismissal: %v", shared.ErrStoreFailure, err)
	}
	return nil
}

// DeleteDismissal removes a single dismissal row.
func (s *Store) DeleteDismissal(ctx context.Context, contextID string, trackID models.TrackID) error {
	return deleteDismissal(ctx, s.db, contextID, trackID)
}

func (t *Tx) DeleteDismissal(ctx context.Context, contextID string, trackID models.TrackID) error {
	return deleteDismissal(ctx, t.tx, contextID, trackID)
}

func deleteDismissal(ctx context.Context, db dbtx, contextID string, trackID models.TrackID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM dismissed_recommendations WHERE context_id = ? AND track_id = ?`, contextID, string(trackID))
	if err != nil {
		return fmt.Errorf("%w: delete_dismissal: %v", shared.ErrStoreFailure, err)
	}
	return nil
}

// ClearContext removes every dismissal within contextID.
func (s *Store) ClearContext(ctx context.Context, contextID string) error {
	return clearContext(ctx, s.db, contextID)
}

func (t *Tx) ClearContext(ctx context.Context, contextID string) error {
	return clearContext(ctx, t.tx, contextID)
}

func clearContext(ctx context.Context, db dbtx, contextID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM dismissed_recommendations WHERE context_id = ?`, contextID)
	if err != nil {
		return fmt.Errorf("%w: clear_context: %v", shared.ErrStoreFailure, err)
	}
	return nil
}

// LatestTrackIDs returns the most recently ingested snapshot for playlistID, in order.
func (s *Store) LatestTrackIDs(ctx context.Context, playlistID string) ([]models.TrackID, error) {
	return latestTrackIDs(ctx, s.db, playlistID)
}

func (t *Tx) LatestTrackIDs(ctx context.Context, playlistID string) ([]models.TrackID, error) {
	return latestTrackIDs(ctx, t.tx, playlistID)
}

func latestTrackIDs(ctx context.Context, db dbtx, playlistID string) ([]models.TrackID, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: latest_track_ids: %v", shared.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []models.TrackID
	for rows.Next() {
		var trackID string
		if err := rows.Scan(&trackID); err != nil {
			return nil, fmt.Errorf("%w: scan playlist_tracks row: %v", shared.ErrStoreFailure, err)
		}
		out = append(out, models.TrackID(trackID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate playlist_tracks: %v", shared.ErrStoreFailure, err)
	}
	return out, nil
}

// Stats reports row counts of the tracks, adjacency, co-occurrence and
// dismissal tables plus on-disk size in bytes.
type Stats struct {
	Tracks            int64
	AdjacencyEdges    int64
	CooccurrenceEdges int64
	Dismissals        int64
	SizeBytes         int64
}

// Stats reports current store-wide counts and on-disk size.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&stats.Tracks); err != nil {
		return Stats{}, fmt.Errorf("%w: count tracks: %v", shared.ErrStoreFailure, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_edges_seq`).Scan(&stats.AdjacencyEdges); err != nil {
		return Stats{}, fmt.Errorf("%w: count adjacency edges: %v", shared.ErrStoreFailure, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_cooccurrence`).Scan(&stats.CooccurrenceEdges); err != nil {
		return Stats{}, fmt.Errorf("%w: count cooccurrence edges: %v", shared.ErrStoreFailure, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dismissed_recommendations`).Scan(&stats.Dismissals); err != nil {
		return Stats{}, fmt.Errorf("%w: count dismissals: %v", shared.ErrStoreFailure, err)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		return Stats{}, fmt.Errorf("%w: page_count: %v", shared.ErrStoreFailure, err)
	}
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return Stats{}, fmt.Errorf("%w: page_size: %v", shared.ErrStoreFailure, err)
	}
	stats.SizeBytes = pageCount * pageSize

	return stats, nil
}

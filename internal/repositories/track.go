package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// TrackRepository caches resolved track metadata in SQLite.
//
// Rows are keyed by provider plus the provider's track ID. Artists are stored
// as a JSON array; the normalized key column backs fuzzy lookups across
// providers.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a track into the cache with a generated ID and sequence.
func (r *TrackRepository) Create(track models.Track) error {
	if track.ID == "" || track.Provider == "" {
		return fmt.Errorf("%w: track requires an ID and a provider", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	artists, err := json.Marshal(track.Artists)
	if err != nil {
		return fmt.Errorf("failed to serialize artists: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO tracks (id, sequence, provider, track_id, title, artists, duration_ms, normalized_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		shared.GenerateID(),
		sequence,
		string(track.Provider),
		track.ID,
		track.Title,
		string(artists),
		track.DurationMS,
		shared.NormalizeTrackKey(track.Title, track.ArtistLine()),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Cache inserts a track unless it is already cached. UNIQUE constraint
// violations from concurrent inserts are treated as success.
func (r *TrackRepository) Cache(track models.Track) error {
	if _, err := r.GetByProviderID(track.Provider, track.ID); err == nil {
		return nil
	}

	if err := r.Create(track); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}

// GetByProviderID retrieves a cached track by provider and track ID.
// Returns [shared.ErrTrackNotFound] when absent or soft-deleted.
func (r *TrackRepository) GetByProviderID(provider models.Provider, trackID string) (models.Track, error) {
	query := `
		SELECT track_id, title, artists, duration_ms, provider
		FROM tracks
		WHERE provider = ? AND track_id = ? AND deleted_at IS NULL
	`

	return scanTrack(r.db.QueryRow(query, string(provider), trackID))
}

// Search finds cached tracks whose title or artists match the query,
// case-insensitively, scoped to one provider. Results follow insertion order.
func (r *TrackRepository) Search(provider models.Provider, query string) ([]models.Track, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	stmt := `
		SELECT track_id, title, artists, duration_ms, provider
		FROM tracks
		WHERE provider = ? AND deleted_at IS NULL
		  AND (LOWER(title) LIKE ? OR LOWER(artists) LIKE ?)
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(stmt, string(provider), pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Delete soft-deletes a cached track.
func (r *TrackRepository) Delete(provider models.Provider, trackID string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE provider = ? AND track_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), string(provider), trackID)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}

	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (models.Track, error) {
	var (
		trackID    string
		title      string
		artists    string
		durationMS int
		provider   string
	)

	err := row.Scan(&trackID, &title, &artists, &durationMS, &provider)
	if err == sql.ErrNoRows {
		return models.Track{}, fmt.Errorf("%w: not cached", shared.ErrTrackNotFound)
	}
	if err != nil {
		return models.Track{}, fmt.Errorf("failed to scan track: %w", err)
	}

	track := models.Track{
		ID:         trackID,
		Title:      title,
		DurationMS: durationMS,
		Provider:   models.Provider(provider),
	}
	if err := json.Unmarshal([]byte(artists), &track.Artists); err != nil {
		return models.Track{}, fmt.Errorf("failed to parse cached artists: %w", err)
	}

	return track, nil
}

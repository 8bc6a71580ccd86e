package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soundlens/internal/models"
	"soundlens/internal/shared"
)

// PlayEventRepository persists synced play history. Events are deduplicated
// by (track_id, played_at), so re-syncing an overlapping window is safe.
type PlayEventRepository struct {
	db *sql.DB
}

// NewPlayEventRepository creates a PlayEventRepository with the given database connection.
func NewPlayEventRepository(db *sql.DB) *PlayEventRepository {
	return &PlayEventRepository{db: db}
}

// Upsert inserts the given events, silently skipping ones already stored.
// Returns the number of newly inserted rows.
func (r *PlayEventRepository) Upsert(ctx context.Context, events []models.PlayEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT OR IGNORE INTO play_events
			(id, track_id, name, artists, album_name, album_image, duration_ms, popularity, preview_url, external_url, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	for _, event := range events {
		artists, err := json.Marshal(event.Track.Artists)
		if err != nil {
			return 0, fmt.Errorf("failed to encode artists: %w", err)
		}

		result, err := tx.ExecContext(ctx, query,
			shared.GenerateID(),
			event.Track.ID,
			event.Track.Name,
			string(artists),
			event.Track.AlbumName,
			event.Track.AlbumImage,
			event.Track.DurationMS,
			event.Track.Popularity,
			event.Track.PreviewURL,
			event.Track.ExternalURL,
			event.PlayedAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert play event: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return inserted, nil
}

// ListSince retrieves all events played after the cutoff, newest first.
func (r *PlayEventRepository) ListSince(ctx context.Context, cutoff time.Time) ([]models.PlayEvent, error) {
	query := `
		SELECT track_id, name, artists, album_name, album_image, duration_ms, popularity, preview_url, external_url, played_at
		FROM play_events
		WHERE played_at > ?
		ORDER BY played_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query play events: %w", err)
	}
	defer rows.Close()

	var events []models.PlayEvent
	for rows.Next() {
		var (
			track      models.Track
			artistsRaw string
			playedAt   time.Time
		)

		err := rows.Scan(&track.ID, &track.Name, &artistsRaw, &track.AlbumName, &track.AlbumImage,
			&track.DurationMS, &track.Popularity, &track.PreviewURL, &track.ExternalURL, &playedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play event: %w", err)
		}

		if err := json.Unmarshal([]byte(artistsRaw), &track.Artists); err != nil {
			return nil, fmt.Errorf("failed to decode artists: %w", err)
		}
		track.IsPlayable = true

		events = append(events, models.PlayEvent{Track: track, PlayedAt: playedAt.Local()})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// Prune deletes events older than the cutoff and returns how many were
// removed.
func (r *PlayEventRepository) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM play_events WHERE played_at <= ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune play events: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soundlens/internal/models"
	"soundlens/internal/pick"
)

// PickRepository implements [pick.Cache] over the daily_picks table. Entries
// are keyed by local calendar date; a row that fails to decode reads as a
// miss so a corrupted cache is silently recomputed.
type PickRepository struct {
	db *sql.DB
}

// NewPickRepository creates a PickRepository with the given database connection.
func NewPickRepository(db *sql.DB) *PickRepository {
	return &PickRepository{db: db}
}

// Get returns the pick stored for the given date key.
func (r *PickRepository) Get(ctx context.Context, date string) (*models.DailyPick, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM daily_picks WHERE date = ?`, date).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query daily pick: %w", err)
	}

	var stored models.DailyPick
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		// Corrupted entry: treat as a miss, the caller recomputes.
		return nil, false, nil
	}

	return &stored, true, nil
}

// Put stores a pick under its date key, replacing any prior entry.
func (r *PickRepository) Put(ctx context.Context, p *models.DailyPick) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode daily pick: %w", err)
	}

	query := `
		INSERT INTO daily_picks (date, payload, created_at) VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET payload = excluded.payload
	`

	if _, err := r.db.ExecContext(ctx, query, p.Date, string(payload), time.Now()); err != nil {
		return fmt.Errorf("failed to save daily pick: %w", err)
	}

	return nil
}

// Delete removes the pick stored for the given date key, if any.
func (r *PickRepository) Delete(ctx context.Context, date string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM daily_picks WHERE date = ?`, date); err != nil {
		return fmt.Errorf("failed to delete daily pick: %w", err)
	}
	return nil
}

var _ pick.Cache = (*PickRepository)(nil)

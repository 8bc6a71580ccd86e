package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"soundlens/internal/session"
)

// SessionRepository implements [session.Store] over a single-row sessions
// table. The app holds one authenticated session at a time, mirroring the
// single local user.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a SessionRepository with the given database connection.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ensureRow inserts the singleton row if it does not exist yet.
func (r *SessionRepository) ensureRow(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO sessions (id) VALUES (1)`)
	if err != nil {
		return fmt.Errorf("failed to initialize session row: %w", err)
	}
	return nil
}

// LoadToken returns the persisted token, or nil when no session is stored.
func (r *SessionRepository) LoadToken(ctx context.Context) (*oauth2.Token, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry
		FROM sessions
		WHERE id = 1
	`

	var (
		accessToken  string
		refreshToken string
		tokenType    string
		expiry       sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query).Scan(&accessToken, &refreshToken, &tokenType, &expiry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if accessToken == "" {
		return nil, nil
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
	}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}

	return token, nil
}

// SaveToken replaces the persisted token fields.
func (r *SessionRepository) SaveToken(ctx context.Context, token *oauth2.Token) error {
	if err := r.ensureRow(ctx); err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, token_type = ?, expiry = ?, updated_at = ?
		WHERE id = 1
	`

	_, err := r.db.ExecContext(ctx, query,
		token.AccessToken, token.RefreshToken, token.TokenType, token.Expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// SaveState persists the anti-forgery state value generated at login.
func (r *SessionRepository) SaveState(ctx context.Context, state string) error {
	if err := r.ensureRow(ctx); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET auth_state = ?, updated_at = ? WHERE id = 1`, state, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

// TakeState returns the stored state value and clears it in one transaction.
func (r *SessionRepository) TakeState(ctx context.Context) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx, `SELECT auth_state FROM sessions WHERE id = 1`).Scan(&state)
	if err == sql.ErrNoRows {
		return "", tx.Commit()
	}
	if err != nil {
		return "", fmt.Errorf("failed to query state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET auth_state = '' WHERE id = 1`); err != nil {
		return "", fmt.Errorf("failed to clear state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	return state, nil
}

// Clear removes all persisted session fields. Idempotent.
func (r *SessionRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

var _ session.Store = (*SessionRepository)(nil)

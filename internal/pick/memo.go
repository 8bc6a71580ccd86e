package pick

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"soundlens/internal/models"
	"soundlens/internal/shared"
)

// Cache persists one pick per calendar date. A Get on a corrupted entry
// reports a miss, never an error the caller must handle.
type Cache interface {
	// Get returns the pick stored for the given date key, and whether one
	// was found.
	Get(ctx context.Context, date string) (*models.DailyPick, bool, error)

	// Put stores a pick under its date key, replacing any prior entry.
	Put(ctx context.Context, pick *models.DailyPick) error
}

// Memo memoizes daily picks per local calendar day over a Cache.
type Memo struct {
	cache  Cache
	logger *log.Logger
	now    func() time.Time
}

// NewMemo creates a Memo over the given cache.
func NewMemo(cache Cache, logger *log.Logger) *Memo {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Memo{
		cache:  cache,
		logger: shared.WithLogger(logger, "component", "pick"),
		now:    time.Now,
	}
}

// Today returns the pick for the current calendar day. A cached pick for
// today is returned verbatim without recomputation, even if events has since
// grown; otherwise the pick is computed from events and stored. The second
// return is false when there is no pick for today.
func (m *Memo) Today(ctx context.Context, events []models.PlayEvent) (*models.DailyPick, bool, error) {
	now := m.now()
	date := Midnight(now).Format(models.PickDateLayout)

	cached, ok, err := m.cache.Get(ctx, date)
	if err != nil {
		// Unreadable cache state is treated as a miss and recomputed.
		m.logger.Warn("pick cache read failed, recomputing", "error", err)
	} else if ok {
		return cached, true, nil
	}

	selected, ok := Select(events, now)
	if !ok {
		return nil, false, nil
	}

	if err := m.cache.Put(ctx, selected); err != nil {
		return nil, false, err
	}

	return selected, true, nil
}

// Recompute discards any cached pick for today and computes a fresh one.
func (m *Memo) Recompute(ctx context.Context, events []models.PlayEvent) (*models.DailyPick, bool, error) {
	now := m.now()

	selected, ok := Select(events, now)
	if !ok {
		return nil, false, nil
	}

	if err := m.cache.Put(ctx, selected); err != nil {
		return nil, false, err
	}

	return selected, true, nil
}

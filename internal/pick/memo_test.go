package pick

import (
	"context"
	"errors"
	"testing"
	"time"

	"soundlens/internal/models"
)

// fakeCache records Get/Put traffic for a single date key.
type fakeCache struct {
	stored  map[string]*models.DailyPick
	getErr  error
	putErr  error
	gets    int
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: map[string]*models.DailyPick{}}
}

func (c *fakeCache) Get(_ context.Context, date string) (*models.DailyPick, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	p, ok := c.stored[date]
	return p, ok, nil
}

func (c *fakeCache) Put(_ context.Context, p *models.DailyPick) error {
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.stored[p.Date] = p
	return nil
}

func memoAt(cache Cache, now time.Time) *Memo {
	m := NewMemo(cache, nil)
	m.now = func() time.Time { return now }
	return m
}

func TestMemo(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	events := []models.PlayEvent{
		event("a", 50, "", now.Add(-1*time.Hour)),
	}

	t.Run("computes and stores on miss", func(t *testing.T) {
		cache := newFakeCache()
		m := memoAt(cache, now)

		p, ok, err := m.Today(context.Background(), events)
		if err != nil || !ok {
			t.Fatalf("Today() = %v, %v, %v", p, ok, err)
		}
		if cache.puts != 1 {
			t.Errorf("expected one Put, got %d", cache.puts)
		}
		if p.Date != "2024-06-15" {
			t.Errorf("date = %q", p.Date)
		}
	})

	t.Run("same day hit is returned verbatim", func(t *testing.T) {
		cache := newFakeCache()
		stale := &models.DailyPick{
			Track:     models.Track{ID: "cached"},
			PlayCount: 99,
			Date:      "2024-06-15",
		}
		cache.stored["2024-06-15"] = stale

		m := memoAt(cache, now)

		// Events would rank a different track, but the cached pick wins.
		p, ok, err := m.Today(context.Background(), events)
		if err != nil || !ok {
			t.Fatalf("Today() = %v, %v, %v", p, ok, err)
		}
		if p != stale {
			t.Errorf("expected the cached pick verbatim, got %+v", p)
		}
		if cache.puts != 0 {
			t.Errorf("cache hit should not Put, got %d", cache.puts)
		}
	})

	t.Run("new day supersedes the old entry", func(t *testing.T) {
		cache := newFakeCache()
		cache.stored["2024-06-15"] = &models.DailyPick{Track: models.Track{ID: "cached"}, Date: "2024-06-15"}

		tomorrow := now.AddDate(0, 0, 1)
		m := memoAt(cache, tomorrow)

		fresh := []models.PlayEvent{event("b", 50, "", tomorrow.Add(-1*time.Hour))}
		p, ok, err := m.Today(context.Background(), fresh)
		if err != nil || !ok {
			t.Fatalf("Today() = %v, %v, %v", p, ok, err)
		}
		if p.Track.ID != "b" {
			t.Errorf("expected a fresh pick for the new day, got %s", p.Track.ID)
		}
	})

	t.Run("unreadable cache recomputes silently", func(t *testing.T) {
		cache := newFakeCache()
		cache.getErr = errors.New("corrupted payload")

		m := memoAt(cache, now)

		p, ok, err := m.Today(context.Background(), events)
		if err != nil {
			t.Fatalf("read failure should not surface: %v", err)
		}
		if !ok || p.Track.ID != "a" {
			t.Fatalf("expected recomputed pick, got %v %v", p, ok)
		}
	})

	t.Run("no events yields no pick and no error", func(t *testing.T) {
		cache := newFakeCache()
		m := memoAt(cache, now)

		p, ok, err := m.Today(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || p != nil {
			t.Errorf("expected no pick, got %+v", p)
		}
		if cache.puts != 0 {
			t.Errorf("nothing should be stored, got %d puts", cache.puts)
		}
	})

	t.Run("put failure surfaces", func(t *testing.T) {
		cache := newFakeCache()
		cache.putErr = errors.New("disk full")

		m := memoAt(cache, now)
		if _, _, err := m.Today(context.Background(), events); err == nil {
			t.Error("expected store failure to surface")
		}
	})

	t.Run("recompute bypasses the cache read", func(t *testing.T) {
		cache := newFakeCache()
		cache.stored["2024-06-15"] = &models.DailyPick{Track: models.Track{ID: "cached"}, Date: "2024-06-15"}

		m := memoAt(cache, now)

		p, ok, err := m.Recompute(context.Background(), events)
		if err != nil || !ok {
			t.Fatalf("Recompute() = %v, %v, %v", p, ok, err)
		}
		if p.Track.ID != "a" {
			t.Errorf("expected recomputed pick, got %s", p.Track.ID)
		}
		if cache.gets != 0 {
			t.Errorf("recompute should not read the cache, got %d gets", cache.gets)
		}
		if got := cache.stored["2024-06-15"]; got == nil || got.Track.ID != "a" {
			t.Errorf("recomputed pick should replace the cached entry, got %+v", got)
		}
	})
}

package repositories

import (
	"context"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"soundlens/internal/models"
	tu "soundlens/internal/testing"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store loads nil", func(t *testing.T) {
		repo := NewSessionRepository(tu.NewTestDB(t))

		token, err := repo.LoadToken(ctx)
		if err != nil {
			t.Fatalf("LoadToken() error = %v", err)
		}
		if token != nil {
			t.Errorf("LoadToken() = %+v, want nil", token)
		}
	})

	t.Run("token round trip", func(t *testing.T) {
		repo := NewSessionRepository(tu.NewTestDB(t))

		expiry := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)
		saved := &oauth2.Token{
			AccessToken:  "acc-1",
			RefreshToken: "ref-1",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}

		if err := repo.SaveToken(ctx, saved); err != nil {
			t.Fatalf("SaveToken() error = %v", err)
		}

		loaded, err := repo.LoadToken(ctx)
		if err != nil {
			t.Fatalf("LoadToken() error = %v", err)
		}
		if loaded == nil {
			t.Fatal("LoadToken() = nil, want token")
		}
		if loaded.AccessToken != "acc-1" || loaded.RefreshToken != "ref-1" {
			t.Errorf("loaded token = %+v", loaded)
		}
		if !loaded.Expiry.Equal(expiry) {
			t.Errorf("Expiry = %v, want %v", loaded.Expiry, expiry)
		}
	})

	t.Run("save overwrites the prior token", func(t *testing.T) {
		repo := NewSessionRepository(tu.NewTestDB(t))

		first := &oauth2.Token{AccessToken: "acc-1", RefreshToken: "ref-1", TokenType: "Bearer", Expiry: time.Now()}
		second := &oauth2.Token{AccessToken: "acc-2", RefreshToken: "ref-2", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}

		if err := repo.SaveToken(ctx, first); err != nil {
			t.Fatalf("SaveToken() error = %v", err)
		}
		if err := repo.SaveToken(ctx, second); err != nil {
			t.Fatalf("SaveToken() error = %v", err)
		}

		loaded, err := repo.LoadToken(ctx)
		if err != nil {
			t.Fatalf("LoadToken() error = %v", err)
		}
		if loaded.AccessToken != "acc-2" {
			t.Errorf("AccessToken = %q, want acc-2", loaded.AccessToken)
		}
	})

	t.Run("state is single use", func(t *testing.T) {
		repo := NewSessionRepository(tu.NewTestDB(t))

		if err := repo.SaveState(ctx, "state-abc"); err != nil {
			t.Fatalf("SaveState() error = %v", err)
		}

		state, err := repo.TakeState(ctx)
		if err != nil {
			t.Fatalf("TakeState() error = %v", err)
		}
		if state != "state-abc" {
			t.Errorf("TakeState() = %q, want state-abc", state)
		}

		state, err = repo.TakeState(ctx)
		if err != nil {
			t.Fatalf("second TakeState() error = %v", err)
		}
		if state != "" {
			t.Errorf("second TakeState() = %q, want empty", state)
		}
	})

	t.Run("take state on an empty store", func(t *testing.T) {
		repo := NewSessionRepository(tu.NewTestDB(t))

		state, err := repo.TakeState(ctx)
		if err != nil {
			t.Fatalf("TakeState() error = %v", err)
		}
		if state != "" {
			t.Errorf("TakeState() = %q, want empty", state)
		}
	})

	t.Run("clear removes the session", func(t *testing.T) {
		repo := NewSessionRepository(tu.NewTestDB(t))

		token := &oauth2.Token{AccessToken: "acc", TokenType: "Bearer", Expiry: time.Now()}
		if err := repo.SaveToken(ctx, token); err != nil {
			t.Fatalf("SaveToken() error = %v", err)
		}

		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		loaded, err := repo.LoadToken(ctx)
		if err != nil {
			t.Fatalf("LoadToken() error = %v", err)
		}
		if loaded != nil {
			t.Errorf("LoadToken() after Clear = %+v, want nil", loaded)
		}

		// Clearing again is a no-op.
		if err := repo.Clear(ctx); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})
}

func TestPlayEventRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("upsert deduplicates by track and timestamp", func(t *testing.T) {
		repo := NewPlayEventRepository(tu.NewTestDB(t))

		events := []models.PlayEvent{
			tu.Play("trk-1", "First", 50, base),
			tu.Play("trk-1", "First", 50, base.Add(-time.Hour)),
			tu.Play("trk-2", "Second", 60, base),
		}

		inserted, err := repo.Upsert(ctx, events)
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if inserted != 3 {
			t.Errorf("inserted = %d, want 3", inserted)
		}

		// Re-syncing an overlapping window inserts only the new event.
		inserted, err = repo.Upsert(ctx, append(events, tu.Play("trk-3", "Third", 70, base)))
		if err != nil {
			t.Fatalf("second Upsert() error = %v", err)
		}
		if inserted != 1 {
			t.Errorf("inserted = %d, want 1", inserted)
		}
	})

	t.Run("upsert with no events", func(t *testing.T) {
		repo := NewPlayEventRepository(tu.NewTestDB(t))

		inserted, err := repo.Upsert(ctx, nil)
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if inserted != 0 {
			t.Errorf("inserted = %d, want 0", inserted)
		}
	})

	t.Run("list since returns newest first", func(t *testing.T) {
		repo := NewPlayEventRepository(tu.NewTestDB(t))

		events := []models.PlayEvent{
			tu.Play("trk-old", "Old", 40, base.AddDate(0, 0, -40)),
			tu.Play("trk-1", "First", 50, base.Add(-2*time.Hour)),
			tu.Play("trk-2", "Second", 60, base.Add(-time.Hour)),
		}
		if _, err := repo.Upsert(ctx, events); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		listed, err := repo.ListSince(ctx, base.AddDate(0, 0, -30))
		if err != nil {
			t.Fatalf("ListSince() error = %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("len(listed) = %d, want 2", len(listed))
		}
		if listed[0].Track.ID != "trk-2" || listed[1].Track.ID != "trk-1" {
			t.Errorf("order = [%s, %s], want [trk-2, trk-1]", listed[0].Track.ID, listed[1].Track.ID)
		}
	})

	t.Run("artists survive the round trip", func(t *testing.T) {
		repo := NewPlayEventRepository(tu.NewTestDB(t))

		event := tu.Play("trk-1", "First", 50, base)
		event.Track.Artists = []string{"Artist One", "Artist Two"}

		if _, err := repo.Upsert(ctx, []models.PlayEvent{event}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		listed, err := repo.ListSince(ctx, base.Add(-time.Hour))
		if err != nil {
			t.Fatalf("ListSince() error = %v", err)
		}
		if len(listed) != 1 {
			t.Fatalf("len(listed) = %d, want 1", len(listed))
		}

		artists := listed[0].Track.Artists
		if len(artists) != 2 || artists[0] != "Artist One" || artists[1] != "Artist Two" {
			t.Errorf("Artists = %v", artists)
		}
	})

	t.Run("prune removes old events", func(t *testing.T) {
		repo := NewPlayEventRepository(tu.NewTestDB(t))

		events := []models.PlayEvent{
			tu.Play("trk-old", "Old", 40, base.AddDate(0, 0, -45)),
			tu.Play("trk-older", "Older", 40, base.AddDate(0, 0, -60)),
			tu.Play("trk-new", "New", 50, base.Add(-time.Hour)),
		}
		if _, err := repo.Upsert(ctx, events); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		pruned, err := repo.Prune(ctx, base.AddDate(0, 0, -30))
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		if pruned != 2 {
			t.Errorf("pruned = %d, want 2", pruned)
		}

		listed, err := repo.ListSince(ctx, base.AddDate(0, 0, -90))
		if err != nil {
			t.Fatalf("ListSince() error = %v", err)
		}
		if len(listed) != 1 || listed[0].Track.ID != "trk-new" {
			t.Errorf("remaining = %v", listed)
		}
	})
}

func TestPickRepository(t *testing.T) {
	ctx := context.Background()

	pickFor := func(date string) *models.DailyPick {
		return &models.DailyPick{
			Date: date,
			Track: models.Track{
				ID:      "trk-1",
				Name:    "Chosen",
				Artists: []string{"Artist One"},
			},
			PlayCount:  3,
			Factors:    []string{"recently played"},
			TimeWindow: "24 hrs",
		}
	}

	t.Run("miss on an empty cache", func(t *testing.T) {
		repo := NewPickRepository(tu.NewTestDB(t))

		_, ok, err := repo.Get(ctx, "2024-06-15")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() reported a hit on an empty cache")
		}
	})

	t.Run("put and get round trip", func(t *testing.T) {
		repo := NewPickRepository(tu.NewTestDB(t))

		if err := repo.Put(ctx, pickFor("2024-06-15")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, ok, err := repo.Get(ctx, "2024-06-15")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok {
			t.Fatal("Get() reported a miss after Put")
		}
		if got.Track.Name != "Chosen" || got.PlayCount != 3 {
			t.Errorf("pick = %+v", got)
		}
		if len(got.Factors) != 1 || got.Factors[0] != "recently played" {
			t.Errorf("Factors = %v", got.Factors)
		}
	})

	t.Run("put replaces the entry for the same date", func(t *testing.T) {
		repo := NewPickRepository(tu.NewTestDB(t))

		if err := repo.Put(ctx, pickFor("2024-06-15")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		replacement := pickFor("2024-06-15")
		replacement.Track.ID = "trk-2"
		replacement.Track.Name = "Replacement"
		if err := repo.Put(ctx, replacement); err != nil {
			t.Fatalf("second Put() error = %v", err)
		}

		got, ok, err := repo.Get(ctx, "2024-06-15")
		if err != nil || !ok {
			t.Fatalf("Get() = %v, %v", ok, err)
		}
		if got.Track.ID != "trk-2" {
			t.Errorf("Track.ID = %q, want trk-2", got.Track.ID)
		}
	})

	t.Run("dates are independent", func(t *testing.T) {
		repo := NewPickRepository(tu.NewTestDB(t))

		if err := repo.Put(ctx, pickFor("2024-06-15")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		_, ok, err := repo.Get(ctx, "2024-06-16")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() for another date reported a hit")
		}
	})

	t.Run("corrupt payload reads as a miss", func(t *testing.T) {
		db := tu.NewTestDB(t)
		repo := NewPickRepository(db)

		_, err := db.ExecContext(ctx,
			`INSERT INTO daily_picks (date, payload) VALUES (?, ?)`, "2024-06-15", "{not json")
		if err != nil {
			t.Fatalf("seeding corrupt row: %v", err)
		}

		_, ok, err := repo.Get(ctx, "2024-06-15")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() reported a hit for a corrupt payload")
		}
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		repo := NewPickRepository(tu.NewTestDB(t))

		if err := repo.Put(ctx, pickFor("2024-06-15")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := repo.Delete(ctx, "2024-06-15"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		_, ok, err := repo.Get(ctx, "2024-06-15")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() reported a hit after Delete")
		}
	})
}

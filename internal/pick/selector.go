// Package pick derives the deterministic "song of the day" from a window of
// play history.
//
// Selection is a pure function of the local calendar date and the scored
// ranking: the same events and date always produce the same pick, within a
// process and across machines.
package pick

import (
	"sort"
	"time"

	"soundlens/internal/models"
)

const (
	// lookbackDays is the scoring window over play history.
	lookbackDays = 30

	// recencyCeiling caps the per-play recency bonus; a play today is
	// worth the full ceiling, decaying linearly to zero at that many
	// days old.
	recencyCeiling = 5.0

	// recentFactorFloor is the per-play recency contribution above which
	// a track is labelled recently played.
	recentFactorFloor = 2.0

	// Popularity sweet spot: neither obscure nor mass-market.
	sweetSpotLow   = 40
	sweetSpotHigh  = 70
	sweetSpotBonus = 3.0

	previewBonus = 2.0

	// candidateCount is how many top-ranked tracks the date seed selects
	// among.
	candidateCount = 5

	windowLabel = "24 hrs"
)

// Candidate is one scored track in the ranking.
type Candidate struct {
	Track   models.Track
	Score   float64
	Plays   int
	Factors []string
}

// WindowStart returns the start of the scoring window ending at now. Callers
// loading history from storage use it to fetch exactly the events Rank will
// consider.
func WindowStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -lookbackDays)
}

// DateSeed derives the deterministic daily seed from a calendar date.
func DateSeed(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Midnight truncates t to its local calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Rank filters events to the lookback window ending at now and scores every
// distinct track: one base point per play, a linearly decaying recency bonus
// per play, a fixed bonus for popularity inside the sweet spot, and a fixed
// bonus for a playable preview. The result is ordered by score descending,
// ties broken by track ID so the ordering is reproducible.
func Rank(events []models.PlayEvent, now time.Time) []Candidate {
	cutoff := WindowStart(now)

	byTrack := make(map[string]*Candidate)
	var order []string

	for _, event := range events {
		if !event.PlayedAt.After(cutoff) || event.PlayedAt.After(now) {
			continue
		}

		c, ok := byTrack[event.Track.ID]
		if !ok {
			c = &Candidate{Track: event.Track}
			byTrack[event.Track.ID] = c
			order = append(order, event.Track.ID)
		}

		c.Plays++
		c.Score++

		daysAgo := now.Sub(event.PlayedAt).Hours() / 24
		recency := recencyCeiling - daysAgo
		if recency > 0 {
			c.Score += recency
			if recency > recentFactorFloor {
				c.addFactor("recently played")
			}
		}

		if event.Track.Popularity >= sweetSpotLow && event.Track.Popularity <= sweetSpotHigh {
			c.Score += sweetSpotBonus
			c.addFactor("uniquely you")
		}

		if event.Track.HasPreview() {
			c.Score += previewBonus
			c.addFactor("preview available")
		}
	}

	candidates := make([]Candidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byTrack[id])
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Track.ID < candidates[j].Track.ID
	})

	return candidates
}

// addFactor records a qualitative label once.
func (c *Candidate) addFactor(factor string) {
	for _, f := range c.Factors {
		if f == factor {
			return
		}
	}
	c.Factors = append(c.Factors, factor)
}

// Select computes the pick for the calendar day containing now. The second
// return is false when no events fall inside the lookback window.
func Select(events []models.PlayEvent, now time.Time) (*models.DailyPick, bool) {
	candidates := Rank(events, now)
	if len(candidates) == 0 {
		return nil, false
	}

	if len(candidates) > candidateCount {
		candidates = candidates[:candidateCount]
	}

	day := Midnight(now)
	chosen := candidates[DateSeed(day)%len(candidates)]

	return &models.DailyPick{
		Track:      chosen.Track,
		PlayCount:  chosen.Plays,
		TimeWindow: windowLabel,
		Factors:    chosen.Factors,
		Date:       day.Format(models.PickDateLayout),
	}, true
}

package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"soundlens/internal/formatter"
	"soundlens/internal/shared"
)

// Pick prints today's song of the day, computing it if this is the first
// request of the day. --recompute discards the cached pick first.
func (r *Runner) Pick(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	recompute := cmd.Bool("recompute")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	exportDir := cmd.String("export")

	pickFn := r.engine.PickOfTheDay
	if recompute {
		r.logger.Info("recomputing pick")
		pickFn = r.engine.RecomputePick
	}

	result, ok, err := pickFn(ctx, nil)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrNoPick
	}

	if exportDir != "" {
		exported, err := formatter.WritePickExport(result, exportDir)
		if err != nil {
			return err
		}
		r.writePlain("✓ Pick exported to %s\n", exported.Directory)
	}

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	r.writePlain("Song of the day (%s)\n\n", result.Date)
	r.writePlain("  %s - %s\n", result.Track.ArtistLine(), result.Track.Name)
	if result.Track.AlbumName != "" {
		r.writePlain("  Album: %s\n", result.Track.AlbumName)
	}
	r.writePlain("  Plays: %d in the last %s\n", result.PlayCount, result.TimeWindow)
	if len(result.Factors) > 0 {
		r.writePlain("  Why: %s\n", strings.Join(result.Factors, ", "))
	}
	if result.Track.ExternalURL != "" {
		r.writePlain("\n  %s\n", result.Track.ExternalURL)
	}

	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"soundlens/internal/models"
	"soundlens/internal/shared"
	"soundlens/internal/spotify"
	"soundlens/internal/tasks"
)

// TracksTop lists top tracks for a Spotify time range.
func (r *Runner) TracksTop(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	timeRange := spotify.TimeRange(cmd.String("range"))
	if !timeRange.Valid() {
		return fmt.Errorf("%w: range must be short_term, medium_term or long_term", shared.ErrInvalidFlag)
	}

	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Infof("listing top tracks for %v", timeRange)

	tracks, err := r.spotify.TopTracks(ctx, timeRange, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(tracks, pretty)
	}

	r.writePlain("Top %d tracks (%s):\n\n", len(tracks), timeRange)
	r.printTracks(tracks)
	return nil
}

// TracksRecent syncs and lists the recently played window.
func (r *Runner) TracksRecent(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Info("syncing recently played tracks")

	sync, err := r.engine.SyncHistory(ctx, nil)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(sync.Events, pretty)
	}

	r.writePlain("Recently played (%d plays, %d new):\n\n", sync.Fetched, sync.Inserted)
	for i, event := range sync.Events {
		r.writePlain("%d. %s - %s\n", i+1, event.Track.ArtistLine(), event.Track.Name)
		r.writePlain("   Played: %s\n", event.PlayedAt.Local().Format("Jan 2 15:04"))
	}
	return nil
}

// Export writes every dashboard track list to disk via the worker pool.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkExport(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Export complete")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d lists\n", result.SuccessfulExports, result.TotalLists)
	if result.FailedExports > 0 {
		r.writePlain("Failed: %d (see %s)\n", result.FailedExports, result.ManifestPath)
	}
	return nil
}

func (r *Runner) printTracks(tracks []models.Track) {
	for i, track := range tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.ArtistLine(), track.Name)
		if track.AlbumName != "" {
			r.writePlain("   Album: %s\n", track.AlbumName)
		}
		r.writePlain("   Duration: %s  Popularity: %d\n", shared.FormatDuration(track.DurationMS), track.Popularity)
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"soundlens/internal/shared"
)

// Playlists lists the user's Spotify playlists with optional limit.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Infof("listing playlists with limit %v", limit)

	playlists, err := r.spotify.Playlists(ctx, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("\n")
	}

	return nil
}

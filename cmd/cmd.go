// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the Spotify session lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show current session state and token expiry",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored session",
				Action: r.AuthLogout,
			},
		},
	}
}

// tracksCommand handles track listing operations
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Track listings from Spotify",
		Commands: []*cli.Command{
			{
				Name:  "top",
				Usage: "List top tracks for a time range",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "range",
						Aliases: []string{"r"},
						Usage:   "Time range: short_term, medium_term, long_term",
						Value:   "medium_term",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.TracksTop,
			},
			{
				Name:  "recent",
				Usage: "List recently played tracks",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.TracksRecent,
			},
		},
	}
}

// playlistsCommand lists the user's library playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

// pickCommand shows the deterministic song of the day
func pickCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pick",
		Usage: "Show today's song of the day",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "recompute",
				Usage: "Discard today's cached pick and recompute",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"e"},
				Usage:   "Export the pick card to a directory (Markdown + cover)",
			},
		},
		Action: r.Pick,
	}
}

// exportCommand writes all dashboard track lists to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export top tracks and play history to files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: soundlens_export_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers",
				Value: 3,
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the dashboard HTTP service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the dashboard HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind host (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Bind port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal dashboard",
		Action:  r.TUI,
	}
}

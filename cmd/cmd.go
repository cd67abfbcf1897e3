// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// authCommand handles Spotify authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify in the browser and cache the token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the cached token and the user it belongs to",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the cached token",
				Action: r.AuthLogout,
			},
		},
	}
}

// meCommand shows the current user
func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the authenticated user's profile",
		Action: r.Me,
	}
}

// playlistCommand handles playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists in your library",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "mine",
						Usage: "Only playlists you own",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "copy",
				Usage: "Append every track of one playlist to another",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Source playlist ID or URI",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target",
						Aliases:  []string{"t"},
						Usage:    "Target playlist ID or URI",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Tracks per request (1-100); defaults to limits.batch_size",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Print a line per batch",
					},
				},
				Action: r.PlaylistCopy,
			},
			{
				Name:  "create",
				Usage: "Create an empty playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlist public",
					},
					&cli.StringFlag{
						Name:    "descr",
						Aliases: []string{"description"},
						Usage:   "Playlist description",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "delete",
				Usage: "Remove a playlist from your library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID or URI",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "confirm",
						Usage: "Confirm the deletion",
					},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "export",
				Usage: "Export playlists to files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Playlist ID or URI (repeatable)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, csv, markdown or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: spotify_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers (1-10)",
						Value: 4,
					},
				},
				Action: r.PlaylistExport,
			},
			{
				Name:  "history",
				Usage: "Show recorded playlist copies",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only copies from this playlist",
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "Only copies into this playlist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
				},
				Action: r.PlaylistHistory,
			},
		},
	}
}

// tracksCommand handles playlist track operations
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Playlist track operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every track of a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID or URI",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "table or csv",
						Value:   "table",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to file instead of stdout",
					},
				},
				Action: r.TracksList,
			},
			{
				Name:  "add",
				Usage: "Add one track to a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist-id",
						Aliases:  []string{"p"},
						Usage:    "Playlist ID or URI",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Track ID or URI",
					},
					&cli.BoolFlag{
						Name:  "now",
						Usage: "Add the currently playing track",
					},
				},
				Action: r.TracksAdd,
			},
		},
	}
}

func timeRangeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "time",
		Aliases: []string{"time-range"},
		Usage:   "short (4 weeks), med (6 months) or long (all time)",
		Value:   "med",
	}
}

// topCommand handles listening history
func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Your most played artists and tracks",
		Commands: []*cli.Command{
			{
				Name:  "artists",
				Usage: "Top artists with a genre histogram",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of artists (1-50); defaults to limits.top",
					},
					timeRangeFlag(),
				},
				Action: r.TopArtists,
			},
			{
				Name:  "tracks",
				Usage: "Top tracks",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of tracks (1-50); defaults to limits.top",
					},
					timeRangeFlag(),
				},
				Action: r.TopTracks,
			},
		},
	}
}

// artistsCommand handles followed artists
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Artist operations",
		Commands: []*cli.Command{
			{
				Name:  "followed",
				Usage: "Followed artists with a genre histogram",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of artists; 0 fetches all of them. Defaults to limits.followed",
						Value: -1,
					},
				},
				Action: r.FollowedArtists,
			},
		},
	}
}

// playerCommand handles playback state
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "player",
		Usage: "Playback state",
		Commands: []*cli.Command{
			{
				Name:   "now",
				Usage:  "Show what is playing",
				Action: r.PlayerNow,
			},
			{
				Name:   "devices",
				Usage:  "List Spotify Connect devices",
				Action: r.PlayerDevices,
			},
		},
	}
}

// audioAnalysisCommand passes through a track's audio analysis
func audioAnalysisCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "audio-analysis",
		Usage: "Print the audio analysis of a track as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Track ID or URI",
				Required: true,
			},
		},
		Action: r.AudioAnalysis,
	}
}

// releasesCommand streams new releases
func releasesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "releases",
		Usage: "List new album releases",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "country",
				Usage: "ISO 3166-1 alpha-2 country code",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Stop after this many releases; 0 lists all",
			},
		},
		Action: r.Releases,
	}
}

// setupCommand handles setup operations for configuration and the credential cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create config.toml from the template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the credential cache and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist copies.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist copies",
		Action:  r.TUI,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meCommand, playlistCommand, tracksCommand, topCommand,
		artistsCommand, playerCommand, audioAnalysisCommand, releasesCommand, tuiCommand,
	} {
		commands = append(commands, r.withBefore(fn(r)))
	}

	return commands
}

// withBefore attaches [Runner.before] to every command with an action, so config is loaded after its flags parse.
func (r *Runner) withBefore(cmd *cli.Command) *cli.Command {
	if cmd.Action != nil {
		cmd.Before = r.before
	}
	for _, sub := range cmd.Commands {
		r.withBefore(sub)
	}
	return cmd
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "spx",
		Usage:    "Copy, list and analyze Spotify playlists and listening history",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Commands: r.register(),
		Writer:   r.output,
	}
}


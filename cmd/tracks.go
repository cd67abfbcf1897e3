package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
)

// TracksList prints every track of a playlist as a table or CSV, to stdout or --output.
func (r *Runner) TracksList(ctx context.Context, cmd *cli.Command) error {
	id := services.IDFromURI(cmd.String("id"))
	format := cmd.String("format")
	output := cmd.String("output")

	if format != "table" && format != formatter.FormatCSV {
		return fmt.Errorf("%w: --format must be table or csv, got %q", shared.ErrInvalidFlag, format)
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("listing tracks", "playlist", id)
	listing, err := engine.ListTracks(ctx, id)
	if err != nil {
		return err
	}

	if output != "" {
		if err := writeTracksFile(listing, format, output); err != nil {
			return err
		}
		r.logger.Info("tracks written", "file", output, "tracks", listing.Count)
		return r.writePlain("✓ %d tracks of %s written to %s\n", listing.Count, listing.PlaylistName, output)
	}

	if cmd.Bool("json") {
		return r.writeJSON(listing, cmd.Bool("pretty"))
	}

	if format == formatter.FormatCSV {
		data, err := formatter.ToCSV(listing.Tracks, formatter.TrackColumns)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	r.writePlain("%s\n\n", listing.PlaylistName)
	formatter.WriteTable(r.output, listing.Tracks, formatter.TrackColumns)
	return r.writePlain("\n%d tracks\n", listing.Count)
}

func writeTracksFile(listing *models.TrackListing, format, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if format == formatter.FormatCSV {
		data, err := formatter.ToCSV(listing.Tracks, formatter.TrackColumns)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}

	formatter.WriteTable(f, listing.Tracks, formatter.TrackColumns)
	return nil
}

// TracksAdd adds one track, or the currently playing track with --now, to a playlist.
func (r *Runner) TracksAdd(ctx context.Context, cmd *cli.Command) error {
	playlistID := services.IDFromURI(cmd.String("playlist-id"))
	trackID := services.IDFromURI(cmd.String("id"))
	now := cmd.Bool("now")

	if now && trackID != "" {
		return fmt.Errorf("%w: use either --id or --now", shared.ErrInvalidArgument)
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	result, err := engine.AddTrack(ctx, playlistID, trackID, now)
	if err != nil {
		return err
	}

	return r.emit(cmd, result, func() error {
		switch result.Status {
		case models.AddStatusAdded:
			return r.writePlain("✓ Added %s to %s\n", result.TrackID, result.PlaylistID)
		case models.AddStatusNoActiveSession:
			return r.writePlain("⚠ Nothing is playing, no track added\n")
		default:
			return r.writePlain("✗ Not added: %s\n", result.Message)
		}
	})
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistList lists the playlists in the user's library, optionally only those they own.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	mine := cmd.Bool("mine")
	var session services.Session
	if mine {
		if session, err = r.currentSession(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("listing playlists", "mine", mine)
	listing, err := engine.ListPlaylists(ctx, session, mine)
	if err != nil {
		return err
	}

	return r.emit(cmd, listing, func() error {
		formatter.WriteTable(r.output, listing.Playlists, formatter.PlaylistColumns)
		return r.writePlain("\n%d playlists\n", listing.Count)
	})
}

// PlaylistCreate creates an empty playlist owned by the current user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}
	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	playlist, err := engine.CreatePlaylist(ctx, session, cmd.String("name"), cmd.Bool("public"), cmd.String("descr"))
	if err != nil {
		return err
	}

	out := map[string]any{
		"id":            playlist.ID,
		"name":          playlist.Name,
		"description":   playlist.Description,
		"public":        playlist.Public,
		"collaborative": playlist.Collaborative,
		"uri":           playlist.URI,
		"timestamp":     shared.Timestamp(time.Now()),
	}

	return r.emit(cmd, out, func() error {
		r.writePlain("✓ Created playlist %s\n", playlist.Name)
		r.writePlain("  ID: %s\n", playlist.ID)
		if playlist.Public {
			r.writePlain("  Visibility: Public\n")
		} else {
			r.writePlain("  Visibility: Private\n")
		}
		return nil
	})
}

// PlaylistDelete removes a playlist from the user's library. Requires --confirm.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id := services.IDFromURI(cmd.String("id"))
	if !cmd.Bool("confirm") {
		return fmt.Errorf("%w: pass --confirm to delete playlist %s", shared.ErrMissingArgument, id)
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}
	if err := engine.DeletePlaylist(ctx, id); err != nil {
		return err
	}

	out := map[string]any{"id": id, "deleted": true, "timestamp": shared.Timestamp(time.Now())}
	return r.emit(cmd, out, func() error {
		return r.writePlain("✓ Deleted playlist %s\n", id)
	})
}

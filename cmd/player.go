package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// PlayerNow shows the current playback. Nothing playing is not an error.
func (r *Runner) PlayerNow(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	playback, err := engine.CurrentPlayback(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, playback, func() error {
		if !playback.Playing {
			return r.writePlain("Nothing is playing\n")
		}

		state := "▶ Playing"
		if !playback.IsPlaying {
			state = "⏸ Paused"
		}
		r.writePlain("%s on %s\n", state, playback.Device)
		r.writePlain("Track: %s\n", playback.Track)
		r.writePlain("Artists: %s\n", strings.Join(playback.Artists, ", "))
		r.writePlain("Album: %s\n", playback.Album)
		r.writePlain("Position: %s / %s\n", formatter.FormatDuration(playback.ProgressMS), formatter.FormatDuration(playback.DurationMS))
		if playback.ContextName != "" {
			r.writePlain("Playlist: %s\n", playback.ContextName)
		} else if playback.Context != "" {
			r.writePlain("Context: %s\n", playback.Context)
		}
		return nil
	})
}

// PlayerDevices lists Spotify Connect devices.
func (r *Runner) PlayerDevices(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	devices, err := engine.Devices(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, devices, func() error {
		records := make([][]string, len(devices))
		for i, d := range devices {
			active, volume := "", ""
			if d.IsActive {
				active = "*"
			}
			if d.VolumePercent != nil {
				volume = strconv.Itoa(*d.VolumePercent) + "%"
			}
			records[i] = []string{active, d.Name, d.Type, volume, d.ID}
		}
		formatter.WriteRecords(r.output, []string{"", "Name", "Type", "Volume", "ID"}, records)
		return nil
	})
}

// Me shows the authenticated user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	user, err := engine.Me(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, user, func() error {
		r.writePlain("%s (%s)\n", user.DisplayName, user.ID)
		if user.Email != "" {
			r.writePlain("Email: %s\n", user.Email)
		}
		r.writePlain("Country: %s\n", user.Country)
		r.writePlain("Product: %s\n", user.Product)
		r.writePlain("Followers: %d\n", user.Followers.Total)
		return nil
	})
}

// AudioAnalysis prints a track's audio analysis as received.
func (r *Runner) AudioAnalysis(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	analysis, err := engine.AudioAnalysis(ctx, cmd.String("id"))
	if err != nil {
		return err
	}
	if len(analysis) == 0 {
		return fmt.Errorf("empty analysis for %s", cmd.String("id"))
	}
	return r.writeRaw(analysis, cmd.Bool("pretty"))
}

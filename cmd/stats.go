package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/spx/internal/aggregate"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/urfave/cli/v3"
)

const maxTopLimit = 50

var timeRanges = map[string]string{
	"short": services.ShortTerm,
	"med":   services.MediumTerm,
	"long":  services.LongTerm,
}

// parseTimeRange maps short, med and long to Spotify's time_range values.
func parseTimeRange(s string) (string, error) {
	if tr, ok := timeRanges[s]; ok {
		return tr, nil
	}
	return "", fmt.Errorf("%w: --time must be short, med or long, got %q", shared.ErrInvalidFlag, s)
}

func (r *Runner) topLimit(flag int) (int, error) {
	switch {
	case flag == 0:
		return r.config.Limits.Top, nil
	case flag < 0 || flag > maxTopLimit:
		return 0, fmt.Errorf("%w: --limit must be between 1 and %d", shared.ErrInvalidFlag, maxTopLimit)
	default:
		return flag, nil
	}
}

// TopArtists lists the user's top artists and the genres they share.
func (r *Runner) TopArtists(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := parseTimeRange(cmd.String("time"))
	if err != nil {
		return err
	}
	limit, err := r.topLimit(cmd.Int("limit"))
	if err != nil {
		return err
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("fetching top artists", "limit", limit, "time_range", timeRange)
	stats, err := engine.TopArtists(ctx, limit, timeRange)
	if err != nil {
		return err
	}

	return r.emit(cmd, stats, func() error { return r.writeArtistStats(stats) })
}

// FollowedArtists lists followed artists and the genres they share.
func (r *Runner) FollowedArtists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit < 0 {
		limit = r.config.Limits.Followed
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("fetching followed artists", "limit", limit)
	stats, err := engine.FollowedArtists(ctx, limit)
	if err != nil {
		return err
	}

	return r.emit(cmd, stats, func() error { return r.writeArtistStats(stats) })
}

func (r *Runner) writeArtistStats(stats *models.ArtistStats) error {
	formatter.WriteTable(r.output, stats.Artists, formatter.ArtistColumns)

	r.writePlainln("Genres")
	records := make([][]string, len(stats.Genres))
	for i, g := range stats.Genres {
		records[i] = []string{strconv.Itoa(g.Count), g.Label}
	}
	formatter.WriteRecords(r.output, []string{"Artists", "Genre"}, records)
	return nil
}

// TopTracks lists the user's top tracks.
func (r *Runner) TopTracks(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := parseTimeRange(cmd.String("time"))
	if err != nil {
		return err
	}
	limit, err := r.topLimit(cmd.Int("limit"))
	if err != nil {
		return err
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("fetching top tracks", "limit", limit, "time_range", timeRange)
	stats, err := engine.TopTracks(ctx, limit, timeRange)
	if err != nil {
		return err
	}

	return r.emit(cmd, stats, func() error {
		formatter.WriteTable(r.output, stats.Tracks, formatter.RankedTrackColumns)
		return nil
	})
}

// Releases lists new album releases, stopping after --limit when set.
func (r *Runner) Releases(ctx context.Context, cmd *cli.Command) error {
	country := cmd.String("country")
	limit := cmd.Int("limit")

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	rows := []aggregate.Row{}
	for row, err := range engine.StreamNewReleases(ctx, country) {
		if err != nil {
			return err
		}
		rows = append(rows, row)
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	r.logger.Debug("fetched releases", "count", len(rows))

	return r.emit(cmd, rows, func() error {
		formatter.WriteTable(r.output, rows, formatter.ReleaseColumns)
		return nil
	})
}

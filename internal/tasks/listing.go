package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/desertthunder/spx/internal/aggregate"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/paging"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/samber/lo"
)

// PlaylistTrackFields project a playlist item ({added_at, track}) into a track row. Local files
// have a null id and popularity, so both are optional here; copying still requires an id.
var PlaylistTrackFields = []aggregate.Field{
	{Name: "artists", Path: "track.artists.#.name"},
	{Name: "album", Path: "track.album.name"},
	{Name: "name", Path: "track.name"},
	{Name: "popularity", Path: "track.popularity", Optional: true},
	{Name: "id", Path: "track.id", Optional: true},
	{Name: "added_at", Path: "added_at", Optional: true},
	{Name: "href", Path: "track.href", Optional: true},
	{Name: "duration_ms", Path: "track.duration_ms", Optional: true},
}

// TrackFields project a track object.
var TrackFields = []aggregate.Field{
	{Name: "name", Path: "name"},
	{Name: "artists", Path: "artists.#.name"},
	{Name: "album", Path: "album.name"},
	{Name: "popularity", Path: "popularity", Optional: true},
	{Name: "id", Path: "id"},
	{Name: "duration_ms", Path: "duration_ms", Optional: true},
}

// ArtistFields project a full artist object.
var ArtistFields = []aggregate.Field{
	{Name: "name", Path: "name"},
	{Name: "genres", Path: "genres"},
	{Name: "popularity", Path: "popularity", Optional: true},
	{Name: "followers", Path: "followers.total", Optional: true},
	{Name: "id", Path: "id"},
}

// PlaylistFields project a simplified playlist object.
var PlaylistFields = []aggregate.Field{
	{Name: "owner", Path: "owner.id"},
	{Name: "owner_name", Path: "owner.display_name", Optional: true},
	{Name: "id", Path: "id"},
	{Name: "total", Path: "tracks.total", Optional: true},
	{Name: "name", Path: "name"},
	{Name: "public", Path: "public", Optional: true},
}

// ReleaseFields project a simplified album object.
var ReleaseFields = []aggregate.Field{
	{Name: "name", Path: "name"},
	{Name: "artists", Path: "artists.#.name"},
	{Name: "album_type", Path: "album_type", Optional: true},
	{Name: "release_date", Path: "release_date", Optional: true},
	{Name: "total_tracks", Path: "total_tracks", Optional: true},
	{Name: "id", Path: "id"},
}

// withRank numbers rows from 1 in place.
func withRank(rows []aggregate.Row) []aggregate.Row {
	for i, row := range rows {
		row["rank"] = i + 1
	}
	return rows
}

// ListTracks returns every track of a playlist in playlist order.
func (e *Engine) ListTracks(ctx context.Context, playlistID string) (*models.TrackListing, error) {
	playlist, err := e.client.Playlist(ctx, playlistID)
	if err != nil {
		return nil, notFound("playlist", playlistID, err)
	}

	items, err := e.playlistItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	rows, err := aggregate.Project(items, PlaylistTrackFields)
	if err != nil {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
	}

	return &models.TrackListing{
		PlaylistID:   playlistID,
		PlaylistName: playlist.Name,
		Count:        len(rows),
		Tracks:       rows,
		Timestamp:    e.now(),
	}, nil
}

// ListPlaylists returns the user's playlists. With mine set only playlists owned by session's user are kept.
func (e *Engine) ListPlaylists(ctx context.Context, session services.Session, mine bool) (*models.PlaylistListing, error) {
	if mine && session.UserID == "" {
		return nil, fmt.Errorf("%w: owner filter requires an authenticated session", shared.ErrNotAuthenticated)
	}

	seq := paging.Stream(ctx, func(ctx context.Context, c paging.Cursor) (paging.Page[json.RawMessage], error) {
		return e.client.UserPlaylistsPage(ctx, c)
	})

	playlists := []aggregate.Row{}
	for item, err := range seq {
		if err != nil {
			return nil, err
		}

		row, err := aggregate.ProjectOne(len(playlists), item, PlaylistFields)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, row)
	}
	e.logger.Debug("fetched playlists", "count", len(playlists))

	if mine {
		playlists = lo.Filter(playlists, func(row aggregate.Row, _ int) bool {
			return row.String("owner") == session.UserID
		})
	}

	return &models.PlaylistListing{
		Mine:      mine,
		Count:     len(playlists),
		Playlists: playlists,
		Timestamp: e.now(),
	}, nil
}

// TopArtists returns the user's top artists and a genre histogram across them.
func (e *Engine) TopArtists(ctx context.Context, limit int, timeRange string) (*models.ArtistStats, error) {
	records, err := e.client.TopArtists(ctx, limit, timeRange)
	if err != nil {
		return nil, err
	}
	stats, err := artistStats(records)
	if err != nil {
		return nil, err
	}
	stats.TimeRange = timeRange
	stats.Timestamp = e.now()
	return stats, nil
}

// FollowedArtists returns followed artists with their genre histogram. limit <= 0 walks every page.
func (e *Engine) FollowedArtists(ctx context.Context, limit int) (*models.ArtistStats, error) {
	var (
		records []json.RawMessage
		err     error
	)

	if limit > 0 {
		var page paging.Page[json.RawMessage]
		page, err = e.client.FollowedArtistsPage(ctx, limit, "")
		records = page.Items
	} else {
		records, err = paging.FetchAll(ctx, func(ctx context.Context, c paging.Cursor) (paging.Page[json.RawMessage], error) {
			return e.client.FollowedArtistsPage(ctx, 0, c)
		})
	}
	if err != nil {
		return nil, err
	}

	stats, err := artistStats(records)
	if err != nil {
		return nil, err
	}
	stats.Timestamp = e.now()
	return stats, nil
}

func artistStats(records []json.RawMessage) (*models.ArtistStats, error) {
	rows, err := aggregate.Project(records, ArtistFields)
	if err != nil {
		return nil, err
	}
	genres := aggregate.Count(records, aggregate.Labels("genres"))

	return &models.ArtistStats{
		Count:   len(rows),
		Artists: withRank(rows),
		Genres:  genres.Sorted(),
	}, nil
}

// TopTracks returns the user's top tracks.
func (e *Engine) TopTracks(ctx context.Context, limit int, timeRange string) (*models.TrackStats, error) {
	records, err := e.client.TopTracks(ctx, limit, timeRange)
	if err != nil {
		return nil, err
	}

	rows, err := aggregate.Project(records, TrackFields)
	if err != nil {
		return nil, err
	}

	return &models.TrackStats{
		TimeRange: timeRange,
		Count:     len(rows),
		Tracks:    withRank(rows),
		Timestamp: e.now(),
	}, nil
}

// StreamNewReleases yields new album releases for country page by page until the consumer stops.
func (e *Engine) StreamNewReleases(ctx context.Context, country string) iter.Seq2[aggregate.Row, error] {
	seq := paging.Stream(ctx, func(ctx context.Context, c paging.Cursor) (paging.Page[json.RawMessage], error) {
		return e.client.NewReleasesPage(ctx, country, c)
	})

	return func(yield func(aggregate.Row, error) bool) {
		index := 0
		for item, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}

			row, err := aggregate.ProjectOne(index, item, ReleaseFields)
			if err != nil {
				yield(nil, err)
				return
			}
			index++

			if !yield(row, nil) {
				return
			}
		}
	}
}

// CreatePlaylist creates an empty playlist owned by the session's user.
func (e *Engine) CreatePlaylist(ctx context.Context, session services.Session, name string, public bool, description string) (*services.SpotifyPlaylist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}
	if session.UserID == "" {
		return nil, fmt.Errorf("%w: creating a playlist requires an authenticated session", shared.ErrNotAuthenticated)
	}

	playlist, err := e.client.CreatePlaylist(ctx, session.UserID, name, public, description)
	if err != nil {
		return nil, err
	}
	e.logger.Info("created playlist", "id", playlist.ID, "name", playlist.Name)
	return playlist, nil
}

// DeletePlaylist unfollows a playlist, which removes it from the user's library.
func (e *Engine) DeletePlaylist(ctx context.Context, playlistID string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}
	if err := e.client.UnfollowPlaylist(ctx, playlistID); err != nil {
		return notFound("playlist", playlistID, err)
	}
	e.logger.Info("deleted playlist", "id", playlistID)
	return nil
}

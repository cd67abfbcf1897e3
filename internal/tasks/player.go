package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// CurrentPlayback describes what is playing. With no active session Playing is false and no error is returned.
func (e *Engine) CurrentPlayback(ctx context.Context) (*models.Playback, error) {
	state, err := e.client.CurrentPlayback(ctx)
	if err != nil {
		return nil, err
	}

	out := &models.Playback{Timestamp: e.now()}
	if state == nil || state.Item == nil {
		return out, nil
	}

	out.Playing = true
	out.IsPlaying = state.IsPlaying
	out.Device = state.Device.Name
	out.TrackID = state.Item.ID
	out.Track = state.Item.Name
	out.Artists = state.Item.ArtistNames()
	out.Album = state.Item.Album.Name
	out.ProgressMS = state.ProgressMS
	out.DurationMS = state.Item.DurationMS

	if state.Context != nil {
		out.Context = state.Context.URI
		if state.Context.Type == "playlist" {
			out.ContextName = e.playlistName(ctx, services.IDFromURI(state.Context.URI))
		}
	}
	return out, nil
}

// playlistName looks up a playlist's name, returning "" when the lookup fails.
func (e *Engine) playlistName(ctx context.Context, id string) string {
	playlist, err := e.client.Playlist(ctx, id)
	if err != nil {
		e.logger.Debug("context lookup failed", "playlist", id, "err", err)
		return ""
	}
	return playlist.Name
}

// Devices lists the user's Spotify Connect devices.
func (e *Engine) Devices(ctx context.Context) ([]services.SpotifyDevice, error) {
	devices, err := e.client.Devices(ctx)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []services.SpotifyDevice{}
	}
	return devices, nil
}

// Me returns the authenticated user's profile.
func (e *Engine) Me(ctx context.Context) (*services.SpotifyUser, error) {
	return e.client.Me(ctx)
}

// Session identifies the authenticated user.
func (e *Engine) Session(ctx context.Context) (services.Session, error) {
	user, err := e.client.Me(ctx)
	if err != nil {
		return services.Session{}, err
	}
	if user == nil || user.ID == "" {
		return services.Session{}, shared.ErrNotAuthenticated
	}
	return services.Session{UserID: user.ID, DisplayName: user.DisplayName}, nil
}

// AudioAnalysis returns the audio analysis document of a track. trackID may be an ID, URI, or URL.
func (e *Engine) AudioAnalysis(ctx context.Context, trackID string) (json.RawMessage, error) {
	id := services.IDFromURI(trackID)
	if id == "" {
		return nil, fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}
	analysis, err := e.client.AudioAnalysis(ctx, id)
	if err != nil {
		return nil, notFound("track", id, err)
	}
	return analysis, nil
}

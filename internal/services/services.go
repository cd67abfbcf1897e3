package services

import "encoding/json"

// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
//
// Collection items are left as raw JSON and projected by the aggregate package. These types cover the
// single-record responses the CLI renders directly.

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified artist object.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified album object.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// ArtistNames returns the names of the track's artists in credit order.
func (t SpotifyTrack) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a playlist without its items.
type SpotifyPlaylist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Owner         Owner          `json:"owner"`
	Public        bool           `json:"public"`
	Collaborative bool           `json:"collaborative"`
	SnapshotID    string         `json:"snapshot_id"`
	Tracks        playlistTracks `json:"tracks"`
	Images        []SpotifyImage `json:"images"`
	URI           string         `json:"uri"`
}

// SpotifyDevice is a Spotify Connect device.
type SpotifyDevice struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsRestricted     bool   `json:"is_restricted"`
	IsPrivateSession bool   `json:"is_private_session"`
	VolumePercent    *int   `json:"volume_percent"`
}

// SpotifyContext is the playlist, album, or artist playback was started from.
type SpotifyContext struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
	Href string `json:"href"`
}

// SpotifyPlayback is the current playback state.
//
// Item is nil while an advertisement plays or when the item is not a track.
type SpotifyPlayback struct {
	Device               SpotifyDevice   `json:"device"`
	Context              *SpotifyContext `json:"context"`
	Item                 *SpotifyTrack   `json:"item"`
	IsPlaying            bool            `json:"is_playing"`
	ProgressMS           int             `json:"progress_ms"`
	ShuffleState         bool            `json:"shuffle_state"`
	RepeatState          string          `json:"repeat_state"`
	CurrentlyPlayingType string          `json:"currently_playing_type"`
}

// Session identifies the authenticated user for operations that depend on ownership.
type Session struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// rawPage is the Spotify paging object with items kept as raw JSON.
type rawPage struct {
	Items []json.RawMessage `json:"items"`
	Next  *string           `json:"next"`
	Total int               `json:"total"`
}

// TimeRange values accepted by the top items endpoints.
const (
	ShortTerm  = "short_term"
	MediumTerm = "medium_term"
	LongTerm   = "long_term"
)

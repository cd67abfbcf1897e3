package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spx/internal/batch"
	"github.com/desertthunder/spx/internal/paging"
	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRedirectURI = "http://127.0.0.1:3000/callback"

	playlistItemsPageSize = 100
	listPageSize          = 50
)

// Scopes requested during authorization. Covers every command the CLI exposes.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-top-read",
	"user-follow-read",
	"user-read-playback-state",
	"user-read-currently-playing",
}

// SpotifyService is a thin client for the Spotify Web API.
//
// Page methods return one page per call. The caller drives pagination through the paging package.
type SpotifyService struct {
	config         *oauth2.Config
	source         oauth2.TokenSource
	httpClient     *http.Client
	baseURL        string
	rps            float64
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
//
// Expects client_id and client_secret; redirect_uri defaults to the local callback server.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Config returns the OAuth2 configuration used for the authorization code flow.
func (s *SpotifyService) Config() *oauth2.Config {
	return s.config
}

// SetBaseURL points API requests at a different host. Cursor URLs returned by that host are followed as-is.
func (s *SpotifyService) SetBaseURL(u string) {
	s.baseURL = strings.TrimRight(u, "/")
}

// SetRateLimit caps outgoing requests per second. Takes effect on the next Authenticate call.
func (s *SpotifyService) SetRateLimit(rps float64) {
	s.rps = rps
}

// SetTokenRefreshCallback registers fn to receive every new token the client obtains.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string, opts ...oauth2.AuthCodeOption) string {
	opts = append([]oauth2.AuthCodeOption{oauth2.AccessTypeOffline}, opts...)
	return s.config.AuthCodeURL(state, opts...)
}

// Authenticate builds the HTTP client from credentials.
//
// Accepts "access_token" (optionally with "refresh_token") or an "auth_code" to exchange.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		return s.UseToken(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.UseToken(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// UseToken authenticates with token, refreshing it through the token endpoint when it expires.
func (s *SpotifyService) UseToken(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}
	return s.UseTokenSource(ctx, s.config.TokenSource(ctx, token))
}

// UseTokenSource authenticates every request with tokens from source.
func (s *SpotifyService) UseTokenSource(ctx context.Context, source oauth2.TokenSource) error {
	if s.onTokenRefresh != nil {
		source = NewRefreshableTokenSource(source, s.onTokenRefresh)
	}
	s.source = oauth2.ReuseTokenSource(nil, source)

	base := http.DefaultTransport
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c.Transport != nil {
		base = c.Transport
	}

	s.httpClient = &http.Client{
		Transport: NewRateLimitedTransport(&oauth2.Transport{Source: s.source, Base: base}, s.rps),
	}
	return nil
}

// Token returns the current access token, refreshing it if needed.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	token, err := s.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// endpoint is either a path relative to the API root or an absolute URL (a pagination cursor).
// body, when non-nil, is sent as JSON. A 204 response leaves result untouched.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.source == nil {
		return shared.ErrNotAuthenticated
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return newAPIError(resp.StatusCode, data)
	}

	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getPage fetches one page at cursor, or at first when cursor is empty. unwrap names the key
// holding the paging object for endpoints that nest it ("artists", "albums").
func (s *SpotifyService) getPage(ctx context.Context, first string, cursor paging.Cursor, unwrap string) (paging.Page[json.RawMessage], error) {
	endpoint := first
	if cursor != "" {
		endpoint = string(cursor)
	}

	var page rawPage
	if unwrap == "" {
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return paging.Page[json.RawMessage]{}, err
		}
	} else {
		var wrapped map[string]rawPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &wrapped); err != nil {
			return paging.Page[json.RawMessage]{}, err
		}
		page = wrapped[unwrap]
	}

	next := paging.Cursor("")
	if page.Next != nil {
		next = paging.Cursor(*page.Next)
	}
	items := page.Items
	if items == nil {
		items = []json.RawMessage{}
	}
	return paging.Page[json.RawMessage]{Items: items, Next: next}, nil
}

// PlaylistItemsPage fetches one page of playlist items ({added_at, track}).
func (s *SpotifyService) PlaylistItemsPage(ctx context.Context, playlistID string, cursor paging.Cursor) (paging.Page[json.RawMessage], error) {
	first := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), playlistItemsPageSize)
	return s.getPage(ctx, first, cursor, "")
}

// UserPlaylistsPage fetches one page of the current user's playlists.
func (s *SpotifyService) UserPlaylistsPage(ctx context.Context, cursor paging.Cursor) (paging.Page[json.RawMessage], error) {
	return s.getPage(ctx, fmt.Sprintf("/me/playlists?limit=%d", listPageSize), cursor, "")
}

// FollowedArtistsPage fetches one page of followed artists. limit applies to the first page; later pages carry it in the cursor.
func (s *SpotifyService) FollowedArtistsPage(ctx context.Context, limit int, cursor paging.Cursor) (paging.Page[json.RawMessage], error) {
	if limit <= 0 || limit > listPageSize {
		limit = listPageSize
	}
	return s.getPage(ctx, fmt.Sprintf("/me/following?type=artist&limit=%d", limit), cursor, "artists")
}

// NewReleasesPage fetches one page of new album releases for country.
func (s *SpotifyService) NewReleasesPage(ctx context.Context, country string, cursor paging.Cursor) (paging.Page[json.RawMessage], error) {
	q := url.Values{"limit": {fmt.Sprint(listPageSize)}}
	if country != "" {
		q.Set("country", country)
	}
	return s.getPage(ctx, "/browse/new-releases?"+q.Encode(), cursor, "albums")
}

// AddPlaylistItems appends tracks to a playlist in one request. Accepts bare IDs or spotify:track URIs.
func (s *SpotifyService) AddPlaylistItems(ctx context.Context, playlistID string, ids []string) (batch.WriteResult, error) {
	uris := make([]string, len(ids))
	for i, id := range ids {
		uris[i] = TrackURI(id)
	}

	var result batch.WriteResult
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, map[string][]string{"uris": uris}, &result); err != nil {
		return batch.WriteResult{}, err
	}
	return result, nil
}

// Me retrieves the current authenticated user's profile.
func (s *SpotifyService) Me(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Session resolves the authenticated user.
func (s *SpotifyService) Session(ctx context.Context) (Session, error) {
	user, err := s.Me(ctx)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: user.ID, DisplayName: user.DisplayName}, nil
}

// Playlist retrieves playlist metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	q := url.Values{"fields": {"id,name,description,owner(id,display_name),public,collaborative,snapshot_id,tracks(total),images,uri"}}
	endpoint := fmt.Sprintf("/playlists/%s?%s", url.PathEscape(playlistID), q.Encode())

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// CreatePlaylist creates an empty playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name string, public bool, description string) (*SpotifyPlaylist, error) {
	body := map[string]any{
		"name":        name,
		"public":      public,
		"description": description,
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// UnfollowPlaylist removes the playlist from the user's library, which is how Spotify deletes playlists.
func (s *SpotifyService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// CurrentPlayback returns the playback state, or nil when nothing is playing.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*SpotifyPlayback, error) {
	var playback *SpotifyPlayback
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &playback); err != nil {
		return nil, err
	}
	return playback, nil
}

// Devices lists the user's available Spotify Connect devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]SpotifyDevice, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// TopArtists fetches up to limit of the user's top artists as raw records.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int, timeRange string) ([]json.RawMessage, error) {
	return s.top(ctx, "artists", limit, timeRange)
}

// TopTracks fetches up to limit of the user's top tracks as raw records.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int, timeRange string) ([]json.RawMessage, error) {
	return s.top(ctx, "tracks", limit, timeRange)
}

func (s *SpotifyService) top(ctx context.Context, kind string, limit int, timeRange string) ([]json.RawMessage, error) {
	if limit <= 0 || limit > listPageSize {
		limit = listPageSize
	}
	q := url.Values{"limit": {fmt.Sprint(limit)}}
	if timeRange != "" {
		q.Set("time_range", timeRange)
	}

	var page rawPage
	if err := s.doRequest(ctx, http.MethodGet, fmt.Sprintf("/me/top/%s?%s", kind, q.Encode()), nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return []json.RawMessage{}, nil
	}
	return page.Items, nil
}

// AudioAnalysis returns the raw audio analysis document for a track.
func (s *SpotifyService) AudioAnalysis(ctx context.Context, trackID string) (json.RawMessage, error) {
	var analysis json.RawMessage
	if err := s.doRequest(ctx, http.MethodGet, "/audio-analysis/"+url.PathEscape(trackID), nil, &analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// TrackURI converts a bare track ID into a spotify:track URI. URIs pass through unchanged.
func TrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return "spotify:track:" + id
}

// IDFromURI returns the last segment of a spotify: URI or open.spotify.com URL, or s itself.
func IDFromURI(s string) string {
	if strings.HasPrefix(s, "spotify:") {
		return s[strings.LastIndex(s, ":")+1:]
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		return u.Path[strings.LastIndex(u.Path, "/")+1:]
	}
	return s
}

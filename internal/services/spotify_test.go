package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/spx/internal/paging"
	"github.com/desertthunder/spx/internal/shared"
	"golang.org/x/oauth2"
)

var testCredentials = map[string]string{
	"client_id":     "test_client_id",
	"client_secret": "test_client_secret",
}

// newTestService returns an authenticated service whose API root is an httptest server running handler.
func newTestService(t *testing.T, handler http.HandlerFunc) (*SpotifyService, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	srv, err := NewSpotifyService(testCredentials)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	srv.SetBaseURL(ts.URL)
	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return srv, ts
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:9999/callback",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.Config().RedirectURL != "http://localhost:9999/callback" {
				t.Errorf("unexpected redirect URI %s", srv.Config().RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "test_client_secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "test_client_id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != defaultRedirectURI {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state", "playlist-modify-private"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL should contain %q: %s", want, authURL)
			}
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("Not Authenticated", func(t *testing.T) {
			if _, err := srv.Me(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("WithAccessToken", func(t *testing.T) {
			if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_access_token"}); err != nil {
				t.Fatalf("expected no error with access token, got %v", err)
			}

			token, err := srv.Token()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", token.AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var seen []string
		srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
			seen = append(seen, token.AccessToken)
		})
		if err := srv.UseToken(context.Background(), &oauth2.Token{AccessToken: "initial"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, _ = srv.Token()
		_, _ = srv.Token()
		if len(seen) != 1 || seen[0] != "initial" {
			t.Errorf("expected one callback with the initial token, got %v", seen)
		}
	})
}

func TestSpotifyRequests(t *testing.T) {
	t.Run("bearer token and error mapping", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			target error
		}{
			{name: "unauthorized", status: http.StatusUnauthorized, target: shared.ErrTokenExpired},
			{name: "not found", status: http.StatusNotFound, target: shared.ErrNotFound},
			{name: "inaccessible", status: http.StatusForbidden, target: shared.ErrNotFound},
			{name: "rate limited", status: http.StatusTooManyRequests, target: shared.ErrServiceUnavailable},
			{name: "server error", status: http.StatusBadGateway, target: shared.ErrServiceUnavailable},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
					if got := r.Header.Get("Authorization"); got != "Bearer test_token" {
						t.Errorf("unexpected Authorization header %q", got)
					}
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, `{"error":{"status":0,"message":"nope"}}`)
				})

				_, err := srv.Me(context.Background())

				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %v", err)
				}
				if apiErr.StatusCode != tt.status || apiErr.Message != "nope" {
					t.Errorf("unexpected error fields %+v", apiErr)
				}
				if !errors.Is(err, tt.target) || !errors.Is(err, shared.ErrAPIRequest) {
					t.Errorf("expected %v and ErrAPIRequest to match %v", tt.target, err)
				}
			})
		}
	})

	t.Run("error without body uses status text", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := srv.Me(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "Forbidden" {
			t.Errorf("expected Forbidden APIError, got %v", err)
		}
		if !shared.IsNotFound(err) {
			t.Errorf("expected 403 to read as not found, got %v", err)
		}
	})

	t.Run("PlaylistItemsPage follows absolute cursors", func(t *testing.T) {
		var paths []string
		srv, ts := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.RequestURI())
			switch r.URL.Query().Get("offset") {
			case "":
				_, _ = io.WriteString(w, `{"items":[{"track":{"id":"a"}},{"track":{"id":"b"}}],"next":"`+
					"http://"+r.Host+`/playlists/p1/tracks?offset=2&limit=100"}`)
			default:
				_, _ = io.WriteString(w, `{"items":[{"track":{"id":"c"}}],"next":null}`)
			}
		})

		items, err := paging.FetchAll(context.Background(), func(ctx context.Context, c paging.Cursor) (paging.Page[json.RawMessage], error) {
			return srv.PlaylistItemsPage(ctx, "p1", c)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}
		if paths[0] != "/playlists/p1/tracks?limit=100" {
			t.Errorf("unexpected first request %s", paths[0])
		}
		if !strings.HasPrefix(paths[1], "/playlists/p1/tracks?offset=2") {
			t.Errorf("unexpected cursor request %s (server %s)", paths[1], ts.URL)
		}
	})

	t.Run("FollowedArtistsPage unwraps artists", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/following" || r.URL.Query().Get("type") != "artist" {
				t.Errorf("unexpected request %s", r.URL)
			}
			_, _ = io.WriteString(w, `{"artists":{"items":[{"name":"X","genres":["rock"]}],"next":null,"cursors":{"after":null}}}`)
		})

		page, err := srv.FollowedArtistsPage(context.Background(), 20, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Items) != 1 || !page.Last() {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("NewReleasesPage sends country", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("country") != "SE" {
				t.Errorf("expected country SE, got %s", r.URL.Query().Get("country"))
			}
			_, _ = io.WriteString(w, `{"albums":{"items":[],"next":null}}`)
		})

		page, err := srv.NewReleasesPage(context.Background(), "SE", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Items == nil || len(page.Items) != 0 {
			t.Errorf("expected empty non-nil items, got %#v", page.Items)
		}
	})

	t.Run("AddPlaylistItems posts uris", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/playlists/p1/tracks" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if len(body.URIs) != 2 || body.URIs[0] != "spotify:track:a" || body.URIs[1] != "spotify:track:b" {
				t.Errorf("unexpected uris %v", body.URIs)
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"snapshot_id":"snap"}`)
		})

		result, err := srv.AddPlaylistItems(context.Background(), "p1", []string{"a", "spotify:track:b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.OK() || result.SnapshotID != "snap" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("CurrentPlayback nothing playing", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		playback, err := srv.CurrentPlayback(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playback != nil {
			t.Errorf("expected nil playback, got %+v", playback)
		}
	})

	t.Run("CurrentPlayback playing", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"is_playing":true,"device":{"name":"Desk"},"item":{"id":"t1","name":"Song","artists":[{"name":"A"},{"name":"B"}]}}`)
		})

		playback, err := srv.CurrentPlayback(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playback == nil || playback.Item == nil || playback.Item.ID != "t1" {
			t.Fatalf("unexpected playback %+v", playback)
		}
		if got := strings.Join(playback.Item.ArtistNames(), ","); got != "A,B" {
			t.Errorf("unexpected artists %s", got)
		}
	})

	t.Run("CreatePlaylist and UnfollowPlaylist", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/users/u1/playlists":
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body["name"] != "Mix" || body["public"] != false {
					t.Errorf("unexpected body %v", body)
				}
				w.WriteHeader(http.StatusCreated)
				_, _ = io.WriteString(w, `{"id":"new","name":"Mix","public":false}`)
			case r.Method == http.MethodDelete && r.URL.Path == "/playlists/new/followers":
				w.WriteHeader(http.StatusOK)
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
		})

		playlist, err := srv.CreatePlaylist(context.Background(), "u1", "Mix", false, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playlist.ID != "new" {
			t.Errorf("unexpected playlist %+v", playlist)
		}
		if err := srv.UnfollowPlaylist(context.Background(), "new"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("TopArtists sends range and limit", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if r.URL.Path != "/me/top/artists" || q.Get("limit") != "5" || q.Get("time_range") != ShortTerm {
				t.Errorf("unexpected request %s", r.URL)
			}
			_, _ = io.WriteString(w, `{"items":[{"name":"X"}]}`)
		})

		items, err := srv.TopArtists(context.Background(), 5, ShortTerm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Errorf("expected 1 item, got %d", len(items))
		}
	})

	t.Run("Session", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"id":"u1","display_name":"User One"}`)
		})

		session, err := srv.Session(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.UserID != "u1" || session.DisplayName != "User One" {
			t.Errorf("unexpected session %+v", session)
		}
	})
}

func TestURIHelpers(t *testing.T) {
	tc := []struct {
		in, id string
	}{
		{"abc", "abc"},
		{"spotify:track:abc", "abc"},
		{"spotify:playlist:xyz", "xyz"},
		{"https://open.spotify.com/playlist/xyz", "xyz"},
	}
	for _, tt := range tc {
		if got := IDFromURI(tt.in); got != tt.id {
			t.Errorf("IDFromURI(%q) = %q, want %q", tt.in, got, tt.id)
		}
	}
	if got := TrackURI("abc"); got != "spotify:track:abc" {
		t.Errorf("TrackURI = %q", got)
	}
	if got := TrackURI("spotify:track:abc"); got != "spotify:track:abc" {
		t.Errorf("TrackURI should pass URIs through, got %q", got)
	}
}
